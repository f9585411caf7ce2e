package canvasserver

import (
	"context"
	"errors"

	"github.com/centralcmd/go_canvas/internal/engine"
	"github.com/centralcmd/go_canvas/internal/engine/profile"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ReviewListInput struct {
	SessionID string `json:"session_id" jsonschema:"Review session ID from extract_chunks"`
	Section   string `json:"section,omitempty" jsonschema:"Limit to recommendations targeting one section"`
}

type ReviewListOutput struct {
	SessionID       string               `json:"session_id"`
	ProfileID       int64                `json:"profile_id"`
	Recommendations []RecommendationView `json:"recommendations"`
}

func registerReviewList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_list",
		Description: "List the recommendations in a review session with their current status: pending, approved, rejected, refined. Optionally filter by target section.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ReviewListInput) (*mcp.CallToolResult, *ReviewListOutput, error) {
		sess, err := getSession(input.SessionID)
		if err != nil {
			return nil, nil, err
		}
		out := &ReviewListOutput{SessionID: sess.ID, ProfileID: sess.ProfileID}
		for _, rec := range sess.List() {
			if input.Section != "" && rec.Chunk.TargetSection != input.Section {
				continue
			}
			out.Recommendations = append(out.Recommendations, recView(rec))
		}
		return nil, out, nil
	})
}

type ReviewActionInput struct {
	SessionID        string `json:"session_id" jsonschema:"Review session ID"`
	RecommendationID string `json:"recommendation_id" jsonschema:"Recommendation ID from review_list"`
}

type ReviewActionOutput struct {
	Recommendation RecommendationView `json:"recommendation"`
}

func reviewAction(name, description string, act func(*profile.Session, string) error) func(*mcp.Server) {
	return func(server *mcp.Server) {
		mcp.AddTool(server, &mcp.Tool{
			Name:        name,
			Description: description,
		}, func(ctx context.Context, _ *mcp.CallToolRequest, input ReviewActionInput) (*mcp.CallToolResult, *ReviewActionOutput, error) {
			sess, err := getSession(input.SessionID)
			if err != nil {
				return nil, nil, err
			}
			if err := act(sess, input.RecommendationID); err != nil {
				return nil, nil, err
			}
			rec, err := sess.Get(input.RecommendationID)
			if err != nil {
				return nil, nil, err
			}
			return nil, &ReviewActionOutput{Recommendation: recView(rec)}, nil
		})
	}
}

func registerReviewApprove(server *mcp.Server) {
	reviewAction("review_approve",
		"Approve a pending recommendation so the next review_commit persists it.",
		func(s *profile.Session, id string) error { return s.Approve(id) })(server)
}

func registerReviewReject(server *mcp.Server) {
	reviewAction("review_reject",
		"Reject a pending recommendation. Rejected recommendations are skipped at commit.",
		func(s *profile.Session, id string) error { return s.Reject(id) })(server)
}

func registerReviewUndo(server *mcp.Server) {
	reviewAction("review_undo",
		"Return an approved, rejected, or refined recommendation to pending. Undo discards any refinement.",
		func(s *profile.Session, id string) error { return s.Undo(id) })(server)
}

type ReviewRefineInput struct {
	SessionID        string `json:"session_id" jsonschema:"Review session ID"`
	RecommendationID string `json:"recommendation_id" jsonschema:"Recommendation ID from review_list"`
	Instruction      string `json:"instruction,omitempty" jsonschema:"Natural-language edit instruction; the content is rewritten accordingly"`
	Content          string `json:"content,omitempty" jsonschema:"Replacement content to use verbatim instead of an instruction"`
	Summary          string `json:"summary,omitempty" jsonschema:"Replacement summary when content is given verbatim"`
}

func registerReviewRefine(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_refine",
		Description: "Edit a pending recommendation before approval, either by a natural-language instruction or by supplying replacement content directly. A refined recommendation counts as approved at commit; undo restores the original.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ReviewRefineInput) (*mcp.CallToolResult, *ReviewActionOutput, error) {
		sess, err := getSession(input.SessionID)
		if err != nil {
			return nil, nil, err
		}
		rec, err := sess.Get(input.RecommendationID)
		if err != nil {
			return nil, nil, err
		}

		content, summary := input.Content, input.Summary
		if content == "" {
			if input.Instruction == "" {
				return nil, nil, errors.New("either instruction or content is required")
			}
			engine.IncrRefineRequests()
			content, summary, err = profile.Refine(ctx, rec.Chunk.Content, rec.Chunk.Summary, input.Instruction)
			if err != nil {
				return nil, nil, err
			}
		}
		if summary == "" {
			summary = rec.Chunk.Summary
		}
		if err := sess.Refine(input.RecommendationID, content, summary); err != nil {
			return nil, nil, err
		}
		return nil, &ReviewActionOutput{Recommendation: recView(rec)}, nil
	})
}

type BulkApproveInput struct {
	SessionID string `json:"session_id" jsonschema:"Review session ID"`
	Section   string `json:"section,omitempty" jsonschema:"Only for review_approve_section: the section to approve"`
	Override  bool   `json:"override,omitempty" jsonschema:"Approve low-confidence recommendations too instead of blocking on them"`
}

type BulkApproveOutput struct {
	Approved      int      `json:"approved"`
	Gated         bool     `json:"gated"`
	LowConfidence []string `json:"low_confidence,omitempty"`
}

func registerReviewApproveAll(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_approve_all",
		Description: "Approve every pending recommendation in the session. Blocks without approving anything if any pending recommendation falls below the confidence threshold; pass override=true to approve those as well.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input BulkApproveInput) (*mcp.CallToolResult, *BulkApproveOutput, error) {
		sess, err := getSession(input.SessionID)
		if err != nil {
			return nil, nil, err
		}
		res := sess.ApproveAll(input.Override)
		return nil, bulkView(res), nil
	})
}

func registerReviewApproveSection(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "review_approve_section",
		Description: "Approve every pending recommendation targeting one section. Same low-confidence gate as review_approve_all.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input BulkApproveInput) (*mcp.CallToolResult, *BulkApproveOutput, error) {
		if input.Section == "" {
			return nil, nil, errors.New("section is required")
		}
		sess, err := getSession(input.SessionID)
		if err != nil {
			return nil, nil, err
		}
		res := sess.ApproveSection(profile.SectionKey(input.Section), input.Override)
		return nil, bulkView(res), nil
	})
}

func bulkView(res profile.BulkApproveResult) *BulkApproveOutput {
	return &BulkApproveOutput{
		Approved:      res.Approved,
		Gated:         res.Gated,
		LowConfidence: res.LowConfidence,
	}
}
