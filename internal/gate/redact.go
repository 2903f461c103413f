package gate

import "regexp"

// Marker replaces every redacted match. It contains no digits and no "@" so
// re-redacting already-redacted text changes nothing.
const Marker = "[REDACTED]"

// Structured-identifier patterns, applied in order. A later pattern may act
// on text already rewritten by an earlier one.
var redactPatterns = []*regexp.Regexp{
	// National-identifier-like digit groups: ###-##-####.
	regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`),

	// Payment-card-like 16-digit runs.
	regexp.MustCompile(`\b[0-9]{16}\b`),

	// Email-like strings, case-insensitive.
	regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
}

// Redact applies all redaction patterns to text sequentially, replacing each
// match with Marker. Redaction is idempotent.
func Redact(text string) string {
	sanitized := text
	for _, pattern := range redactPatterns {
		sanitized = pattern.ReplaceAllString(sanitized, Marker)
	}
	return sanitized
}
