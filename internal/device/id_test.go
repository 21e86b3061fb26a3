package device

import (
	"errors"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"canonical", "A4:CF:12:9B:00:3E", "A4:CF:12:9B:00:3E", false},
		{"lowercase", "a4:cf:12:9b:00:3e", "A4:CF:12:9B:00:3E", false},
		{"hyphen separators", "A4-CF-12-9B-00-3E", "A4:CF:12:9B:00:3E", false},
		{"mixed and padded", "  a4-cf-12-9b-00-3e ", "A4:CF:12:9B:00:3E", false},
		{"too short", "A4:CF:12:9B:00", "", true},
		{"too long", "A4:CF:12:9B:00:3E:FF", "", true},
		{"bad hex", "G4:CF:12:9B:00:3E", "", true},
		{"no separators", "A4CF129B003E", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidID) {
					t.Errorf("ParseID(%q): got err %v, want ErrInvalidID", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseID(%q): got %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "jane.doe@example.com", "x+y@sub.domain.org"}
	invalid := []string{"", "nope", "a@b", "two@@b.co", "spaces in@b.co"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false, want true", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true, want false", e)
		}
	}
}

func TestSanitizeEmailKey(t *testing.T) {
	if got := SanitizeEmailKey(" Jane.Doe@Example.COM "); got != "jane,doe@example,com" {
		t.Errorf("got %q", got)
	}
}
