package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"atlaswatch/internal/model"
)

// RegistryConfig is the YAML document form of a policy registry.
type RegistryConfig struct {
	Domains map[string]RuntimePolicy `yaml:"domains"`
}

// Validate rejects unknown citizen modes.
func (c *RegistryConfig) Validate() error {
	for domain, p := range c.Domains {
		switch p.CitizenMode {
		case "", model.ModePublic, model.ModePrivate, model.ModeResearch:
		default:
			return fmt.Errorf("policy for %q: unknown citizen_mode %q", domain, p.CitizenMode)
		}
	}
	return nil
}

// Load loads a policy registry from a YAML file. Empty path falls back to
// ~/.atlaswatch/policies.yaml. Missing file returns an empty registry, which
// denies everything.
func Load(path string) (*Registry, error) {
	r, _, err := LoadWithHash(path)
	return r, err
}

// LoadWithHash loads a policy registry and returns the SHA-256 content hash
// of the raw YAML bytes for provenance reporting.
func LoadWithHash(path string) (*Registry, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return NewRegistry(), emptyHash(), nil
		}
		path = filepath.Join(home, ".atlaswatch", "policies.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("failed to read policy registry: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	var cfg RegistryConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse policy registry: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	r := NewRegistry()
	r.Replace(cfg.Domains)
	return r, hash, nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}
