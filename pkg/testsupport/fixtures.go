package testsupport

import (
	"os"
	"testing"
)

// MustLoadFixture reads path or fails the test.
func MustLoadFixture(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("load fixture %s: %v", path, err)
	}
	return data
}
