package core

import "testing"

func TestGenerateSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Implement API Client", "implement-api-client"},
		{"  spaces  everywhere  ", "spaces-everywhere"},
		{"Fix bug #42 (urgent!)", "fix-bug-42-urgent"},
		{"---", "item"},
		{"", "item"},
		{"Already-a-slug", "already-a-slug"},
	}
	for _, tc := range cases {
		if got := generateSlug(tc.in); got != tc.want {
			t.Fatalf("generateSlug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEnsureUniqueID(t *testing.T) {
	existing := []string{"setup", "setup-2"}

	if got := ensureUniqueID("teardown", existing); got != "teardown" {
		t.Fatalf("expected teardown, got %q", got)
	}
	if got := ensureUniqueID("setup", existing); got != "setup-3" {
		t.Fatalf("expected setup-3, got %q", got)
	}
}
