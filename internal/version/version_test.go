package version

import "testing"

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringIncludesShortCommit(t *testing.T) {
	old := Commit
	Commit = "0123456789abcdef"
	t.Cleanup(func() { Commit = old })
	if got, want := String(), Version+" (0123456)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestVersionStringWithoutCommit(t *testing.T) {
	old := Commit
	Commit = ""
	t.Cleanup(func() { Commit = old })
	if got := String(); got != Version {
		t.Fatalf("String() = %q, want %q", got, Version)
	}
}
