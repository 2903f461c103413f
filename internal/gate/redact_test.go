package gate

import (
	"strings"
	"testing"
)

func TestRedactEmailAndSSN(t *testing.T) {
	input := "contact a@b.com, ssn 123-45-6789"
	got := Redact(input)

	if strings.Contains(got, "a@b.com") {
		t.Errorf("email not redacted: %s", got)
	}
	if strings.Contains(got, "123-45-6789") {
		t.Errorf("ssn not redacted: %s", got)
	}
	want := "contact " + Marker + ", ssn " + Marker
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRedactCardNumber(t *testing.T) {
	got := Redact("card 4111111111111111 on file")
	if strings.Contains(got, "4111111111111111") {
		t.Errorf("card number not redacted: %s", got)
	}
	if !strings.Contains(got, Marker) {
		t.Errorf("expected marker in output: %s", got)
	}
}

func TestRedactAllPatternsTogether(t *testing.T) {
	input := "Contact user42@example.com or ssn 123-45-6789 and card 4111111111111111"
	got := Redact(input)

	for _, leak := range []string{"user42@example.com", "123-45-6789", "4111111111111111"} {
		if strings.Contains(got, leak) {
			t.Errorf("value %q leaked through redaction: %s", leak, got)
		}
	}
	if strings.Count(got, Marker) != 3 {
		t.Errorf("expected 3 markers, got %d in %q", strings.Count(got, Marker), got)
	}
}

func TestRedactIdempotent(t *testing.T) {
	inputs := []string{
		"contact a@b.com, ssn 123-45-6789",
		"card 4111111111111111",
		"nothing sensitive here",
		"",
		Marker,
	}

	for _, input := range inputs {
		once := Redact(input)
		twice := Redact(once)
		if once != twice {
			t.Errorf("redaction not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestRedactLeavesCleanTextAlone(t *testing.T) {
	input := "the quick brown fox, id 12-34, short 123456"
	if got := Redact(input); got != input {
		t.Errorf("clean text altered: %q -> %q", input, got)
	}
}
