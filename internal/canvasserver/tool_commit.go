package canvasserver

import (
	"context"

	"github.com/centralcmd/go_canvas/internal/engine"
	"github.com/centralcmd/go_canvas/internal/engine/profile"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CommitInput struct {
	SessionID string `json:"session_id" jsonschema:"Review session ID from extract_chunks"`
}

type SectionScoreView struct {
	Section  string `json:"section"`
	Score    int    `json:"score"`
	Previous int    `json:"previous"`
	Bucket   string `json:"bucket"`
}

type CommitOutput struct {
	SavedCount      int                `json:"saved_count"`
	OverallScore    int                `json:"overall_score"`
	PreviousOverall int                `json:"previous_overall"`
	OverallBucket   string             `json:"overall_bucket"`
	Sections        []SectionScoreView `json:"sections"`
}

func registerReviewCommit(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_commit",
		Description: "Persist the approved and refined recommendations of a session into the profile. Recommendations for the same field are synthesized together in one pass. Re-committing the same session is a no-op. Returns the score delta the commit produced.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input CommitInput) (*mcp.CallToolResult, *CommitOutput, error) {
		sess, err := getSession(input.SessionID)
		if err != nil {
			return nil, nil, err
		}

		var result *profile.CommitResult
		err = engine.TrackOperation(ctx, "review_commit", func(ctx context.Context) error {
			var err error
			result, err = committer.Commit(ctx, sess)
			return err
		})
		if err != nil {
			return nil, nil, err
		}

		out := &CommitOutput{
			SavedCount:      result.SavedCount,
			OverallScore:    result.Scores.Overall,
			PreviousOverall: result.PreviousScores.Overall,
			OverallBucket:   string(profile.Bucket(result.Scores.Overall)),
		}
		for _, sec := range result.Profile.Sections {
			out.Sections = append(out.Sections, SectionScoreView{
				Section:  string(sec.Key),
				Score:    result.Scores.Sections[sec.Key],
				Previous: result.PreviousScores.Sections[sec.Key],
				Bucket:   string(profile.Bucket(result.Scores.Sections[sec.Key])),
			})
		}
		return nil, out, nil
	})
}
