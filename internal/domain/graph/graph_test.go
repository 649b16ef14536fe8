package graph

import "testing"

func TestParseMode(t *testing.T) {
	for _, s := range []string{"related", "direct", "path"} {
		m, err := ParseMode(s)
		if err != nil {
			t.Errorf("ParseMode(%q) error: %v", s, err)
		}
		if string(m) != s {
			t.Errorf("ParseMode(%q) = %q", s, m)
		}
	}
	if _, err := ParseMode("neighbours"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
