package validation

import "testing"

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "with hyphen", raw: "00-001", want: "00001"},
		{name: "with spaces", raw: " 05 120 ", want: "05120"},
		{name: "partial", raw: "0", want: "0"},
		{name: "letters dropped", raw: "ab-12c", want: "12"},
		{name: "empty", raw: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePostalCode(tt.raw); got != tt.want {
				t.Fatalf("NormalizePostalCode(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSanitizePostalInput(t *testing.T) {
	if got := SanitizePostalInput("00-0a01 "); got != "00-001" {
		t.Fatalf("SanitizePostalInput = %q, want %q", got, "00-001")
	}
}

func TestIsValidPostalCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{name: "canonical", code: "00-001", valid: true},
		{name: "no hyphen", code: "00001", valid: true},
		{name: "hyphen misplaced", code: "000-01", valid: false},
		{name: "too short", code: "00-01", valid: false},
		{name: "letters", code: "0a-001", valid: false},
		{name: "empty", code: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPostalCode(tt.code); got != tt.valid {
				t.Fatalf("IsValidPostalCode(%q) = %v, want %v", tt.code, got, tt.valid)
			}
		})
	}
}

func TestFormatPostalCode(t *testing.T) {
	if got := FormatPostalCode("00001"); got != "00-001" {
		t.Fatalf("FormatPostalCode = %q, want 00-001", got)
	}
	if got := FormatPostalCode("001"); got != "001" {
		t.Fatalf("FormatPostalCode must keep partial input, got %q", got)
	}
}
