package canvasserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/centralcmd/go_canvas/internal/engine"
	"github.com/centralcmd/go_canvas/internal/engine/profile"
	"github.com/centralcmd/go_canvas/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ExtractInput struct {
	ProfileID int64  `json:"profile_id" jsonschema:"Profile the extracted chunks will target"`
	Content   string `json:"content" jsonschema:"Raw input: conversation transcript, notes, or document text"`
	InputType string `json:"input_type,omitempty" jsonschema:"How the content was captured: voice, text (default), file. File content may be HTML and is converted to plain text"`
	Section   string `json:"section,omitempty" jsonschema:"Limit extraction to one section of the profile schema"`
}

type RecommendationView struct {
	ID         string  `json:"id"`
	Target     string  `json:"target"`
	Content    string  `json:"content"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

type ExtractOutput struct {
	SessionID       string               `json:"session_id"`
	ProfileID       int64                `json:"profile_id"`
	Recommendations []RecommendationView `json:"recommendations"`
	Invalid         []string             `json:"invalid,omitempty"`
}

func registerExtractChunks(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_chunks",
		Description: "Extract structured knowledge chunks from raw input (transcript, notes, or file) and open a review session. Each chunk targets one field of the profile schema and starts as a pending recommendation. Nothing is persisted until review_commit.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExtractInput) (*mcp.CallToolResult, *ExtractOutput, error) {
		if input.ProfileID <= 0 {
			return nil, nil, errors.New("profile_id is required")
		}
		if input.Content == "" {
			return nil, nil, errors.New("content is required")
		}

		p, err := store.Load(ctx, input.ProfileID)
		if err != nil {
			return nil, nil, err
		}

		inputType := profile.InputType(input.InputType)
		if inputType == "" {
			inputType = profile.InputText
		}
		text, err := profile.NormalizeInput(inputType, input.Content)
		if err != nil {
			return nil, nil, err
		}

		var scope profile.SectionKey
		if input.Section != "" {
			schema, err := profile.SchemaFor(p.Kind)
			if err != nil {
				return nil, nil, err
			}
			if _, ok := schema.Section(profile.SectionKey(input.Section)); !ok {
				return nil, nil, fmt.Errorf("%w: section %q", profile.ErrUnknownTarget, input.Section)
			}
			scope = profile.SectionKey(input.Section)
		}

		type cachedExtraction struct {
			Chunks  []profile.ExtractionChunk `json:"chunks"`
			Invalid []string                  `json:"invalid,omitempty"`
		}

		var chunks []profile.ExtractionChunk
		var invalid []string
		cacheKey := engine.CacheKey("extract", string(p.Kind), string(scope), text)
		if cached, ok := toolutil.CacheLoadJSON[cachedExtraction](ctx, cacheKey); ok {
			chunks, invalid = cached.Chunks, cached.Invalid
		} else {
			var verrs []profile.ChunkValidationError
			chunks, verrs, err = profile.ExtractChunks(ctx, p.Kind, text, scope, inputType)
			if err != nil {
				return nil, nil, err
			}
			for _, ve := range verrs {
				invalid = append(invalid, ve.Error())
			}
			toolutil.CacheStoreJSON(ctx, cacheKey, cachedExtraction{Chunks: chunks, Invalid: invalid})
		}

		sess := profile.NewSession(newSessionID(), p.ID, p.Kind, chunks)
		if engine.Cfg.ReviewThreshold > 0 {
			sess.Threshold = engine.Cfg.ReviewThreshold
		}
		sessions.Store(sess.ID, sess)

		slog.Info("extract: session opened",
			slog.String("session", sess.ID),
			slog.Int64("profile", p.ID),
			slog.Int("chunks", len(chunks)),
			slog.Int("invalid", len(invalid)))

		out := &ExtractOutput{SessionID: sess.ID, ProfileID: p.ID, Invalid: invalid}
		for _, rec := range sess.List() {
			out.Recommendations = append(out.Recommendations, recView(rec))
		}
		return nil, out, nil
	})
}

func recView(r *profile.Recommendation) RecommendationView {
	return RecommendationView{
		ID:         r.ID,
		Target:     r.Chunk.Target(),
		Content:    r.EffectiveContent(),
		Summary:    r.EffectiveSummary(),
		Confidence: r.Chunk.Confidence,
		Status:     string(r.Status),
	}
}
