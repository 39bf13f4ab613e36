package model

import (
	"strings"
	"testing"
)

func TestIsValidSafeAddress(t *testing.T) {
	valid := []string{
		"0x0B8fA6F76eB75ae3a4ca28eb3020DFC4503F2136",
		"0x" + strings.Repeat("a", 40),
		"0x" + strings.Repeat("F", 40),
		"0x" + strings.Repeat("0", 40),
	}
	for _, address := range valid {
		if !IsValidSafeAddress(address) {
			t.Errorf("IsValidSafeAddress(%s) = false, want true", address)
		}
	}

	invalid := []string{
		"",
		"0x",
		strings.Repeat("a", 42),                  // missing prefix
		"0x" + strings.Repeat("a", 39),           // too short
		"0x" + strings.Repeat("a", 41),           // too long
		"0x" + strings.Repeat("g", 40),           // non-hex
		"0x" + strings.Repeat("a", 39) + "z",     // non-hex tail
		"0X" + strings.Repeat("a", 40),           // wrong prefix case
		" 0x" + strings.Repeat("a", 40),          // leading whitespace
		"0x" + strings.Repeat("a", 40) + "\n",    // trailing newline
	}
	for _, address := range invalid {
		if IsValidSafeAddress(address) {
			t.Errorf("IsValidSafeAddress(%q) = true, want false", address)
		}
	}
}
