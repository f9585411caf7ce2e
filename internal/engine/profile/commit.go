package profile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/centralcmd/go_canvas/internal/engine"
)

// CommitResult is the sole contract the presentation layer needs after a
// commit: the updated profile, scores on both sides of the change, and how
// many distinct fields were touched.
type CommitResult struct {
	Profile        *Profile `json:"profile"`
	Scores         Scores   `json:"scores"`
	PreviousScores Scores   `json:"previous_scores"`
	SavedCount     int      `json:"saved_count"`
}

// Committer is the transactional boundary between a review session and the
// durable profile. At most one commit runs per profile at a time; commits to
// different profiles are independent.
type Committer struct {
	Store Store
	Synth *Synthesizer

	locks sync.Map // profile ID → *sync.Mutex
}

// NewCommitter wires a committer to its store and synthesizer.
func NewCommitter(store Store, synth *Synthesizer) *Committer {
	return &Committer{Store: store, Synth: synth}
}

type fieldBatch struct {
	section      SectionKey
	subsection   SubsectionKey
	field        FieldKey
	sectionOrder int
	subOrder     int
	recs         []*Recommendation
}

// Commit merges the session's eligible recommendations into the profile,
// persists the result as a single atomic unit, and returns before/after
// scores. Recommendations landing on the same field in one batch are merged
// with ONE synthesis call. Re-committing an identical batch is a no-op: a
// (content, sourceID) pair already on a field is never added twice.
func (c *Committer) Commit(ctx context.Context, sess *Session) (*CommitResult, error) {
	muAny, _ := c.locks.LoadOrStore(sess.ProfileID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	if !mu.TryLock() {
		engine.IncrCommitConflicts()
		return nil, fmt.Errorf("%w: %d", ErrConcurrentCommit, sess.ProfileID)
	}
	defer mu.Unlock()

	current, err := c.Store.Load(ctx, sess.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("commit load: %w", err)
	}
	previous := ComputeScores(current)

	schema, err := SchemaFor(current.Kind)
	if err != nil {
		return nil, err
	}

	batches, err := groupByField(schema, sess.Eligible())
	if err != nil {
		return nil, err
	}

	// Work on a clone: a failed synthesis or save leaves the loaded profile
	// untouched and nothing partial ever reaches the store.
	work := current.Clone()
	saved := 0
	for _, b := range batches {
		f, err := work.Field(b.section, b.subsection, b.field)
		if err != nil {
			return nil, err
		}

		var incoming []Source
		for _, rec := range b.recs {
			content := rec.EffectiveContent()
			if f.HasSource(rec.ID, content) {
				continue // already committed in a previous run
			}
			incoming = append(incoming, Source{
				ID:         rec.ID,
				RawContent: content,
				CapturedAt: rec.Chunk.CapturedAt,
				InputType:  rec.Chunk.InputType,
				Snippet:    engine.TruncateAtWord(rec.EffectiveSummary(), 200),
				Confidence: rec.Chunk.Confidence,
			})
		}
		if len(incoming) == 0 {
			continue
		}

		ref := FieldRef{Kind: work.Kind, Section: b.section, Subsection: b.subsection, Field: b.field}
		engine.IncrSynthesisCalls()
		if err := c.Synth.Synthesize(ctx, ref, f, incoming); err != nil {
			return nil, err
		}
		saved++
	}

	if saved > 0 {
		work.UpdatedAt = c.Synth.Now().UTC()
		if err := c.Store.Save(ctx, work); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	engine.IncrCommits()

	scores := ComputeScores(work)
	slog.Info("commit applied",
		slog.Int64("profile_id", sess.ProfileID),
		slog.Int("fields_updated", saved),
		slog.Int("score_before", previous.Overall),
		slog.Int("score_after", scores.Overall))

	return &CommitResult{
		Profile:        work,
		Scores:         scores,
		PreviousScores: previous,
		SavedCount:     saved,
	}, nil
}

// groupByField buckets recommendations by target field and orders the
// buckets by (section order, subsection order, field key) so a batch applies
// identically regardless of chunk arrival order.
func groupByField(schema Schema, recs []*Recommendation) ([]fieldBatch, error) {
	byKey := make(map[string]*fieldBatch)
	for _, rec := range recs {
		sec, sub, field, err := schema.ResolveTarget(
			rec.Chunk.TargetSection, rec.Chunk.TargetSubsection, rec.Chunk.TargetField)
		if err != nil {
			return nil, err
		}
		key := string(sec) + "/" + string(sub) + "/" + string(field)
		b, ok := byKey[key]
		if !ok {
			secOrder, subOrder := schemaOrder(schema, sec, sub)
			b = &fieldBatch{
				section: sec, subsection: sub, field: field,
				sectionOrder: secOrder, subOrder: subOrder,
			}
			byKey[key] = b
		}
		b.recs = append(b.recs, rec)
	}

	out := make([]fieldBatch, 0, len(byKey))
	for _, b := range byKey {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].sectionOrder != out[j].sectionOrder {
			return out[i].sectionOrder < out[j].sectionOrder
		}
		if out[i].subOrder != out[j].subOrder {
			return out[i].subOrder < out[j].subOrder
		}
		return out[i].field < out[j].field
	})
	return out, nil
}

func schemaOrder(schema Schema, sec SectionKey, sub SubsectionKey) (int, int) {
	for si, s := range schema.Sections {
		if s.Key != sec {
			continue
		}
		for bi, b := range s.Subsections {
			if b.Key == sub {
				return si, bi
			}
		}
		return si, 0
	}
	return 0, 0
}
