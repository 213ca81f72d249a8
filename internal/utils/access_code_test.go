package utils

import "testing"

func TestNewAccessCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code, err := NewAccessCode()
		if err != nil {
			t.Fatalf("NewAccessCode: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("code %q has length %d, want 8", code, len(code))
		}
		for _, r := range code {
			if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
				t.Fatalf("code %q contains non-hex rune %q", code, r)
			}
		}
		if seen[code] {
			t.Fatalf("code %q repeated within 100 draws", code)
		}
		seen[code] = true
	}
}
