package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/centralcmd/go_canvas/internal/engine"
)

// ExtractionChunk is one candidate fact produced by the extraction
// collaborator. Chunks are ephemeral: they live only inside a review session
// and are never persisted directly.
type ExtractionChunk struct {
	TargetSection    string    `json:"target_section"`
	TargetSubsection string    `json:"target_subsection"`
	TargetField      string    `json:"target_field"`
	Content          string    `json:"content"`
	Summary          string    `json:"summary"`
	Confidence       float64   `json:"confidence"`
	InputType        InputType `json:"input_type,omitempty"`
	CapturedAt       time.Time `json:"captured_at"`
}

// Target renders the chunk's destination as section/subsection/field.
func (c ExtractionChunk) Target() string {
	return c.TargetSection + "/" + c.TargetSubsection + "/" + c.TargetField
}

// ValidateChunk checks a chunk from the untrusted extraction collaborator:
// the target triple must exist in the schema and confidence must be in [0,1].
func ValidateChunk(schema Schema, c ExtractionChunk) error {
	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("empty content")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range [0,1]", c.Confidence)
	}
	if _, _, _, err := schema.ResolveTarget(c.TargetSection, c.TargetSubsection, c.TargetField); err != nil {
		return err
	}
	return nil
}

const extractPrompt = `You are a fact extraction engine for a sales-operations platform. Extract discrete facts from the captured input below and map each to exactly one profile field.

Profile type: %s
%s
Valid targets (use these exact keys):
%s

Captured input:
%s

For each discrete fact found, emit one chunk. Do not merge unrelated facts into one chunk. Set confidence in [0,1]: 1.0 for facts stated verbatim, lower for inferences.

Return a JSON object:
{
  "chunks": [
    {
      "target_section": "goals",
      "target_subsection": "outcomes",
      "target_field": "primary_goal",
      "content": "the fact, restated as standalone prose",
      "summary": "short restatement",
      "confidence": 0.9
    }
  ]
}
Return ONLY the JSON object, no markdown, no explanation.`

type llmExtractOutput struct {
	Chunks []ExtractionChunk `json:"chunks"`
}

// ExtractChunks calls the extraction collaborator over normalized input and
// returns the chunks that pass validation. A malformed chunk is dropped with
// a ChunkValidationError; it never fails the rest of the batch.
func ExtractChunks(ctx context.Context, kind Kind, rawText string, scope SectionKey, inputType InputType) ([]ExtractionChunk, []ChunkValidationError, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, nil, err
	}

	scopeLine := ""
	targets := schema.TargetList()
	if scope != "" {
		sec, ok := schema.Section(scope)
		if !ok {
			return nil, nil, fmt.Errorf("%w: section %q", ErrUnknownTarget, scope)
		}
		scopeLine = fmt.Sprintf("Only extract facts for the %q section.\n", sec.Key)
		targets = targets[:0]
		for _, sub := range sec.Subsections {
			for _, f := range sub.Fields {
				targets = append(targets, fmt.Sprintf("%s/%s/%s", sec.Key, sub.Key, f.Key))
			}
		}
	}

	engine.IncrExtractionRequests()
	prompt := fmt.Sprintf(extractPrompt, kind, scopeLine, strings.Join(targets, "\n"),
		engine.TruncateRunes(rawText, 12000, ""))

	raw, err := engine.CallLLM(ctx, prompt)
	if err != nil {
		return nil, nil, fmt.Errorf("extract LLM: %w", err)
	}

	var out llmExtractOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, nil, fmt.Errorf("extract parse: %w (raw: %s)", err, engine.TruncateRunes(raw, 200, "..."))
	}

	now := time.Now().UTC()
	var chunks []ExtractionChunk
	var rejected []ChunkValidationError
	for i, c := range out.Chunks {
		if err := ValidateChunk(schema, c); err != nil {
			rejected = append(rejected, ChunkValidationError{Index: i, Target: c.Target(), Reason: err.Error()})
			continue
		}
		c.InputType = inputType
		c.CapturedAt = now
		chunks = append(chunks, c)
	}

	if len(rejected) > 0 {
		slog.Warn("extraction dropped invalid chunks",
			slog.Int("accepted", len(chunks)),
			slog.Int("rejected", len(rejected)))
	}
	return chunks, rejected, nil
}

const refinePrompt = `You are refining one extracted fact on a sales-operations platform, following the reviewer's instruction.

Current content: %s
Current summary: %s

Instruction: %s

Rewrite the content and summary per the instruction. Keep every fact that the instruction does not ask to change.

Return a JSON object: {"refined_content": "...", "refined_summary": "..."}
Return ONLY the JSON object, no markdown, no explanation.`

type llmRefineOutput struct {
	RefinedContent string `json:"refined_content"`
	RefinedSummary string `json:"refined_summary"`
}

// Refine rewrites one candidate fact per an explicit reviewer instruction.
// Called only on user action; the state machine records the result.
func Refine(ctx context.Context, content, summary, instruction string) (string, string, error) {
	prompt := fmt.Sprintf(refinePrompt, content, summary, instruction)
	raw, err := engine.CallLLM(ctx, prompt)
	if err != nil {
		return "", "", fmt.Errorf("refine LLM: %w", err)
	}
	var out llmRefineOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", "", fmt.Errorf("refine parse: %w (raw: %s)", err, engine.TruncateRunes(raw, 200, "..."))
	}
	if out.RefinedContent == "" {
		return "", "", fmt.Errorf("refine: empty refined_content")
	}
	return out.RefinedContent, out.RefinedSummary, nil
}
