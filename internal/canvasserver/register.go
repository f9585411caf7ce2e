// Package canvasserver registers the profile synthesis MCP tools:
// profile lifecycle, chunk extraction, recommendation review, and commit.
package canvasserver

import (
	"fmt"
	"sync"

	"github.com/centralcmd/go_canvas/internal/engine/profile"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	store     profile.Store
	committer *profile.Committer
	synth     *profile.Synthesizer

	sessions sync.Map // session ID → *profile.Session
)

// RegisterTools wires the store and synthesizer into package state and
// registers all canvas tools on the given MCP server.
func RegisterTools(server *mcp.Server, s profile.Store, sy *profile.Synthesizer) {
	store = s
	synth = sy
	committer = profile.NewCommitter(s, sy)

	registerProfileCreate(server)
	registerProfileGet(server)
	registerProfileList(server)
	registerProfileSourceRemove(server)
	registerExtractChunks(server)
	registerReviewList(server)
	registerReviewApprove(server)
	registerReviewReject(server)
	registerReviewUndo(server)
	registerReviewRefine(server)
	registerReviewApproveAll(server)
	registerReviewApproveSection(server)
	registerReviewCommit(server)
}

// newSessionID returns a process-unique session ID. Recommendation IDs
// derive from it and end up as persisted source IDs, so a session ID must
// never repeat across restarts.
func newSessionID() string {
	return "rs-" + uuid.NewString()
}

func getSession(id string) (*profile.Session, error) {
	val, ok := sessions.Load(id)
	if !ok {
		return nil, fmt.Errorf("unknown review session %q (sessions do not survive restarts; re-run extract_chunks)", id)
	}
	return val.(*profile.Session), nil
}
