package anchor

import (
	"testing"

	"atlaswatch/internal/model"
)

func TestChecksumDeterministic(t *testing.T) {
	data := []byte("virtual-object summary")
	if Checksum(data) != Checksum(data) {
		t.Fatal("checksum must be deterministic")
	}
}

func TestChecksumSensitiveToInput(t *testing.T) {
	a := Checksum([]byte("abc"))
	b := Checksum([]byte("abd"))
	c := Checksum([]byte("ab"))
	if a == b || a == c {
		t.Errorf("distinct inputs collided: %08x %08x %08x", a, b, c)
	}
}

func TestHexWidth(t *testing.T) {
	for _, v := range []uint32{0, 1, 0xFF, 0xDEADBEEF} {
		if got := Hex(v); len(got) != 8 {
			t.Errorf("Hex(%#x) = %q, want 8 chars", v, got)
		}
	}
}

func TestNewAnchorCarriesProof(t *testing.T) {
	a := New("evm-mainnet", "0xferry", []byte("summary"))
	if a.ChainID != "evm-mainnet" || a.TxID != "0xferry" {
		t.Errorf("anchor fields wrong: %+v", a)
	}
	if a.LocalProofHex != Hex(Checksum([]byte("summary"))) {
		t.Error("local proof must be the checksum of the summary")
	}
}

func TestDescriptorChecksumTracksRevision(t *testing.T) {
	d := model.VirtualObjectDescriptor{
		ID:   model.NewVirtualObjectID(),
		Kind: model.KindJSONSchema,
	}
	before := DescriptorChecksum(d)
	d.Stability.RevisionCount = 7
	after := DescriptorChecksum(d)
	if before == after {
		t.Error("checksum must change with the object's chain position")
	}
}
