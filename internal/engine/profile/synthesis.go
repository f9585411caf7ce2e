package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/centralcmd/go_canvas/internal/engine"
)

// FieldRef addresses one field for the merge collaborator, so prompts can
// name what they are synthesizing.
type FieldRef struct {
	Kind       Kind
	Section    SectionKey
	Subsection SubsectionKey
	Field      FieldKey
}

func (r FieldRef) String() string {
	return fmt.Sprintf("%s/%s/%s", r.Section, r.Subsection, r.Field)
}

// MergeResult is the synthesized value produced by the generation collaborator.
type MergeResult struct {
	FullContext string `json:"full_context"`
	Summary     string `json:"summary"`
}

// Generator merges a field's raw sources into one coherent synthesized value.
// The generator receives ALL sources, oldest first: when sources disagree it
// should prefer the most recently captured claim but acknowledge the older
// one rather than discard it. The decision of when to re-synthesize, and all
// versioning, stays on this side of the boundary.
type Generator interface {
	Merge(ctx context.Context, ref FieldRef, sources []Source) (MergeResult, error)
}

// Synthesizer applies the source-merge rules to fields. Now is injectable
// for tests and defaults to time.Now.
type Synthesizer struct {
	Gen Generator
	Now func() time.Time
}

// NewSynthesizer returns a Synthesizer backed by gen.
func NewSynthesizer(gen Generator) *Synthesizer {
	return &Synthesizer{Gen: gen, Now: time.Now}
}

// Synthesize appends the incoming sources to the field (ordered by capture
// time) and recomputes FullContext/Summary over the full source set. The
// synthesis version increments by exactly one per successful call. On
// generator failure the field is left untouched.
func (s *Synthesizer) Synthesize(ctx context.Context, ref FieldRef, f *Field, incoming []Source) error {
	if len(incoming) == 0 {
		return fmt.Errorf("synthesize %s: no sources to add", ref)
	}

	merged := make([]Source, 0, len(f.Sources)+len(incoming))
	merged = append(merged, f.Sources...)
	merged = append(merged, incoming...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CapturedAt.Before(merged[j].CapturedAt)
	})

	res, err := s.Gen.Merge(ctx, ref, merged)
	if err != nil {
		return fmt.Errorf("synthesize %s: %w", ref, err)
	}

	f.Sources = merged
	f.FullContext = res.FullContext
	f.Summary = res.Summary
	f.SynthesisVersion++
	now := s.Now().UTC()
	f.LastSynthesizedAt = &now
	return nil
}

// RemoveSource detaches one source. Removing the last source decays the field
// back to empty rather than leaving a stale synthesis; otherwise the field is
// fully re-synthesized from the surviving sources — never subtracted textually.
func (s *Synthesizer) RemoveSource(ctx context.Context, ref FieldRef, f *Field, sourceID string) error {
	idx := -1
	for i, src := range f.Sources {
		if src.ID == sourceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s on %s", ErrSourceNotFound, sourceID, ref)
	}

	remaining := make([]Source, 0, len(f.Sources)-1)
	remaining = append(remaining, f.Sources[:idx]...)
	remaining = append(remaining, f.Sources[idx+1:]...)

	if len(remaining) == 0 {
		f.Sources = nil
		f.FullContext = ""
		f.Summary = ""
		f.SynthesisVersion = 0
		f.LastSynthesizedAt = nil
		return nil
	}

	res, err := s.Gen.Merge(ctx, ref, remaining)
	if err != nil {
		return fmt.Errorf("resynthesize %s: %w", ref, err)
	}
	f.Sources = remaining
	f.FullContext = res.FullContext
	f.Summary = res.Summary
	f.SynthesisVersion++
	now := s.Now().UTC()
	f.LastSynthesizedAt = &now
	return nil
}

// RecentlySynthesized reports whether the field was synthesized within the
// window, for the UI freshness badge. Pure function of the timestamp.
func RecentlySynthesized(f Field, now time.Time, window time.Duration) bool {
	if f.LastSynthesizedAt == nil {
		return false
	}
	return now.Sub(*f.LastSynthesizedAt) < window
}

const mergePrompt = `You are a profile synthesis engine for a sales-operations platform. Merge the raw captured notes below into one coherent knowledge entry about a single topic.

Topic: %s (profile type: %s)

Captured notes, oldest first:
%s

Rules:
- Combine every note into one coherent prose entry ("full_context") and a one-sentence restatement ("summary").
- When notes disagree on a fact, prefer the most recently captured note, but mention the earlier claim if the disagreement is not clearly a correction.
- Do not invent facts that appear in no note.

Return a JSON object: {"full_context": "...", "summary": "..."}
Return ONLY the JSON object, no markdown, no explanation.`

// LLMGenerator is the default Generator, delegating the textual merge to the
// configured LLM while keeping all merge policy in the Synthesizer.
type LLMGenerator struct{}

func (LLMGenerator) Merge(ctx context.Context, ref FieldRef, sources []Source) (MergeResult, error) {
	var notes string
	for i, src := range sources {
		notes += fmt.Sprintf("[%d] (%s, captured %s) %s\n",
			i+1, src.InputType, src.CapturedAt.UTC().Format(time.RFC3339),
			engine.TruncateRunes(src.RawContent, 2000, "..."))
	}

	prompt := fmt.Sprintf(mergePrompt, ref, ref.Kind, notes)
	raw, err := engine.CallLLM(ctx, prompt)
	if err != nil {
		return MergeResult{}, fmt.Errorf("merge LLM: %w", err)
	}

	var res MergeResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		// Models occasionally emit unescaped control characters inside the
		// JSON values; salvage the fields before giving up.
		res.FullContext = engine.ExtractJSONField(raw, "full_context")
		res.Summary = engine.ExtractJSONField(raw, "summary")
		if res.FullContext == "" {
			return MergeResult{}, fmt.Errorf("merge parse: %w (raw: %s)", err, engine.TruncateRunes(raw, 200, "..."))
		}
	}
	if res.FullContext == "" {
		return MergeResult{}, fmt.Errorf("merge: empty full_context for %s", ref)
	}
	return res, nil
}
