package version

import "testing"

// TestFlagEmpty fails if version.Flag is not empty. Releases are cut from
// master, where the flag must be empty.
func TestFlagEmpty(t *testing.T) {
	if len(Flag) > 0 {
		t.Fatalf("Version Flag is not empty: %s", Flag)
	}
}
