package canvasserver

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

// Session IDs become recommendation IDs and, via commit, persisted source
// IDs. A counter-based ID would restart at zero with the process and let a
// new session collide with sources already stored on a profile, so IDs must
// be unique per process lifetime, not per counter state.
func TestNewSessionIDProcessUnique(t *testing.T) {
	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		id := newSessionID()
		if !strings.HasPrefix(id, "rs-") {
			t.Fatalf("unexpected session ID format: %s", id)
		}
		if _, err := uuid.Parse(strings.TrimPrefix(id, "rs-")); err != nil {
			t.Fatalf("session ID %s is not UUID-backed: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate session ID %s", id)
		}
		seen[id] = true
	}
}
