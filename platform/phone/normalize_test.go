package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"bare national number", "4155552671", "+14155552671"},
		{"formatted national number", "(415) 555-2671", "+14155552671"},
		{"already e164", "+14155552671", "+14155552671"},
		{"international with prefix", "+442071838750", "+442071838750"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input); got != tc.want {
				t.Fatalf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeE164KeepsUnparseableInput(t *testing.T) {
	if got := NormalizeE164("not-a-number"); got != "not-a-number" {
		t.Fatalf("expected unparseable input returned as-is, got %q", got)
	}
}
