// Package policy resolves per-domain runtime policy. Unregistered domains
// fall back to a deny-by-default policy: telemetry and cross-origin
// introspection disallowed, empty SDK allow-list, private citizen mode.
package policy

import (
	"sync"

	"atlaswatch/internal/model"
)

// RuntimePolicy is the per-domain policy guards enforce.
type RuntimePolicy struct {
	Domain                        string                  `yaml:"domain" json:"domain"`
	AllowTelemetry                bool                    `yaml:"allow_telemetry" json:"allow_telemetry"`
	AllowCrossOriginIntrospection bool                    `yaml:"allow_cross_origin_introspection" json:"allow_cross_origin_introspection"`
	AllowedSDKs                   []string                `yaml:"allowed_sdks" json:"allowed_sdks"`
	CitizenMode                   model.CitizenSafetyMode `yaml:"citizen_mode" json:"citizen_mode"`
}

// Deny returns the deny-by-default policy scoped to the given domain.
func Deny(domain string) RuntimePolicy {
	return RuntimePolicy{
		Domain:      domain,
		CitizenMode: model.ModePrivate,
	}
}

// SDKAllowed reports whether sdk is present in the allow-list.
func (p RuntimePolicy) SDKAllowed(sdk string) bool {
	for _, s := range p.AllowedSDKs {
		if s == sdk {
			return true
		}
	}
	return false
}

// Registry maps domain names to runtime policies. Safe for concurrent
// lookups and updates so serve mode can hot-swap policies.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]RuntimePolicy
}

// NewRegistry creates an empty registry (everything denied).
func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]RuntimePolicy)}
}

// Set registers or replaces the policy for a domain.
func (r *Registry) Set(domain string, p RuntimePolicy) {
	p.Domain = domain
	if p.CitizenMode == "" {
		p.CitizenMode = model.ModePrivate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[domain] = p
}

// PolicyFor returns the registered policy for the domain, or the
// deny-by-default policy scoped to the requested domain name.
func (r *Registry) PolicyFor(domain string) RuntimePolicy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.policies[domain]; ok {
		return p
	}
	return Deny(domain)
}

// Domains returns the registered domain names.
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.policies))
	for d := range r.policies {
		out = append(out, d)
	}
	return out
}

// Replace swaps the full policy map, used by hot reload.
func (r *Registry) Replace(policies map[string]RuntimePolicy) {
	next := make(map[string]RuntimePolicy, len(policies))
	for d, p := range policies {
		p.Domain = d
		if p.CitizenMode == "" {
			p.CitizenMode = model.ModePrivate
		}
		next[d] = p
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies = next
}
