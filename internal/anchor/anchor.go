// Package anchor computes local sanity checksums and carries pass-through
// references to external ledger anchors. The checksum is a small auditable
// accumulator, deliberately non-cryptographic: it exists for local
// cross-checking only and is not a security primitive. Submitting proofs to
// an external ledger is out of scope.
package anchor

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"atlaswatch/internal/model"
)

// LedgerAnchor is a pass-through record binding an object to an external
// chain transaction. No on-chain interaction happens here.
type LedgerAnchor struct {
	ChainID string `json:"chain_id"`
	TxID    string `json:"tx_id"`
	// LocalProofHex is the local checksum of the object summary.
	LocalProofHex string `json:"local_proof_hex"`
}

// New builds an anchor for an already-submitted external transaction,
// computing the local proof from the provided summary bytes.
func New(chainID, txID string, summary []byte) LedgerAnchor {
	return LedgerAnchor{
		ChainID:       chainID,
		TxID:          txID,
		LocalProofHex: Hex(Checksum(summary)),
	}
}

// Checksum folds bytes into a 32-bit accumulator using rotate, xor, and a
// wrapping multiply.
func Checksum(data []byte) uint32 {
	acc := uint32(0xC0DEB10D)
	for _, b := range data {
		acc = bits.RotateLeft32(acc, 5) ^ uint32(b)
		acc *= 0x1F3D5B79
	}
	return acc
}

// Hex renders a checksum as 8 lowercase hex characters.
func Hex(v uint32) string {
	return fmt.Sprintf("%08x", v)
}

// DescriptorChecksum summarizes an object's identity, kind, and position in
// its version chain.
func DescriptorChecksum(d model.VirtualObjectDescriptor) string {
	var buf []byte
	buf = append(buf, d.ID[:]...)
	buf = append(buf, []byte(d.Kind)...)
	buf = binary.LittleEndian.AppendUint64(buf, d.Stability.RevisionCount)
	return Hex(Checksum(buf))
}

// ObjectSummary builds the proof input for an AR object: identity, owner,
// kind tag, and spatial position.
func ObjectSummary(id, owner, kind string, x, y, z float64) []byte {
	var buf []byte
	buf = append(buf, []byte(id)...)
	buf = append(buf, []byte(owner)...)
	buf = append(buf, []byte(kind)...)
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(y))
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(z))
	return buf
}
