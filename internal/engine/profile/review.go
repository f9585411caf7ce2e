package profile

import (
	"fmt"
	"sort"
)

// Status is the review state of one recommendation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusRefined  Status = "refined"
)

// DefaultLowConfidenceThreshold gates bulk approval: any pending
// recommendation below it blocks approve-all until explicitly overridden.
const DefaultLowConfidenceThreshold = 0.7

// Recommendation wraps one extraction chunk with review state. Refined
// content, once set, wins over the original until an undo clears it.
type Recommendation struct {
	ID             string          `json:"id"`
	Chunk          ExtractionChunk `json:"chunk"`
	Status         Status          `json:"status"`
	RefinedContent string          `json:"refined_content,omitempty"`
	RefinedSummary string          `json:"refined_summary,omitempty"`
}

// EffectiveContent is what a commit will persist: the refined value if one
// exists, else the original chunk content.
func (r *Recommendation) EffectiveContent() string {
	if r.RefinedContent != "" {
		return r.RefinedContent
	}
	return r.Chunk.Content
}

// EffectiveSummary mirrors EffectiveContent for the summary.
func (r *Recommendation) EffectiveSummary() string {
	if r.RefinedSummary != "" {
		return r.RefinedSummary
	}
	return r.Chunk.Summary
}

// Session is one in-memory review workflow over a batch of extracted chunks.
// Abandoning a session before commit has no persisted side effects.
type Session struct {
	ID        string
	ProfileID int64
	Kind      Kind
	Threshold float64

	recs []*Recommendation
	byID map[string]*Recommendation
}

// NewSession wraps validated chunks into pending recommendations.
// Recommendation IDs are stable within the session; they become source IDs
// at commit time, which is what makes re-commits idempotent.
func NewSession(id string, profileID int64, kind Kind, chunks []ExtractionChunk) *Session {
	s := &Session{
		ID:        id,
		ProfileID: profileID,
		Kind:      kind,
		Threshold: DefaultLowConfidenceThreshold,
		byID:      make(map[string]*Recommendation, len(chunks)),
	}
	for i, c := range chunks {
		rec := &Recommendation{
			ID:     fmt.Sprintf("%s-%d", id, i+1),
			Chunk:  c,
			Status: StatusPending,
		}
		s.recs = append(s.recs, rec)
		s.byID[rec.ID] = rec
	}
	return s
}

// Get returns the recommendation with the given ID.
func (s *Session) Get(id string) (*Recommendation, error) {
	rec, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRecommendationNotFound, id)
	}
	return rec, nil
}

// List returns all recommendations in extraction order.
func (s *Session) List() []*Recommendation {
	return s.recs
}

// Approve moves a pending recommendation to approved.
func (s *Session) Approve(id string) error {
	rec, err := s.Get(id)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, rec.Status)
	}
	rec.Status = StatusApproved
	return nil
}

// Reject moves a pending recommendation to rejected.
func (s *Session) Reject(id string) error {
	rec, err := s.Get(id)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return fmt.Errorf("%w: reject from %s", ErrInvalidTransition, rec.Status)
	}
	rec.Status = StatusRejected
	return nil
}

// Undo returns a triaged recommendation to the original unreviewed state:
// status back to pending AND any refinement cleared.
func (s *Session) Undo(id string) error {
	rec, err := s.Get(id)
	if err != nil {
		return err
	}
	switch rec.Status {
	case StatusApproved, StatusRejected, StatusRefined:
		rec.Status = StatusPending
		rec.RefinedContent = ""
		rec.RefinedSummary = ""
		return nil
	default:
		return fmt.Errorf("%w: undo from %s", ErrInvalidTransition, rec.Status)
	}
}

// Refine records the collaborator-rewritten content for a pending
// recommendation and marks it refined.
func (s *Session) Refine(id, content, summary string) error {
	rec, err := s.Get(id)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return fmt.Errorf("%w: refine from %s", ErrInvalidTransition, rec.Status)
	}
	rec.Status = StatusRefined
	rec.RefinedContent = content
	rec.RefinedSummary = summary
	return nil
}

// BulkApproveResult reports the outcome of an approve-all request. Gated is
// a safety signal, not an error: nothing was mutated and the caller can
// re-invoke with override to proceed.
type BulkApproveResult struct {
	Approved      int      `json:"approved"`
	Gated         bool     `json:"gated"`
	LowConfidence []string `json:"low_confidence,omitempty"`
}

// ApproveAll approves every pending recommendation. If any pending item sits
// below the confidence threshold and override is false, the whole operation
// is refused and the low-confidence IDs are reported instead.
func (s *Session) ApproveAll(override bool) BulkApproveResult {
	return s.approveWhere(override, func(*Recommendation) bool { return true })
}

// ApproveSection is ApproveAll scoped to one target section, with the
// low-confidence gate evaluated against that section only.
func (s *Session) ApproveSection(section SectionKey, override bool) BulkApproveResult {
	return s.approveWhere(override, func(r *Recommendation) bool {
		return r.Chunk.TargetSection == string(section)
	})
}

func (s *Session) approveWhere(override bool, match func(*Recommendation) bool) BulkApproveResult {
	var res BulkApproveResult
	if !override {
		for _, rec := range s.recs {
			if rec.Status == StatusPending && match(rec) && rec.Chunk.Confidence < s.Threshold {
				res.LowConfidence = append(res.LowConfidence, rec.ID)
			}
		}
		if len(res.LowConfidence) > 0 {
			res.Gated = true
			return res
		}
	}
	for _, rec := range s.recs {
		if rec.Status == StatusPending && match(rec) {
			rec.Status = StatusApproved
			res.Approved++
		}
	}
	return res
}

// GroupBySection partitions recommendations by target section for display.
// The partition is derived on every call, never stored.
func (s *Session) GroupBySection() map[SectionKey][]*Recommendation {
	groups := make(map[SectionKey][]*Recommendation)
	for _, rec := range s.recs {
		key := SectionKey(rec.Chunk.TargetSection)
		groups[key] = append(groups[key], rec)
	}
	return groups
}

// SectionKeys returns the group keys in sorted order for stable output.
func (s *Session) SectionKeys() []SectionKey {
	seen := make(map[SectionKey]bool)
	var keys []SectionKey
	for _, rec := range s.recs {
		key := SectionKey(rec.Chunk.TargetSection)
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Eligible returns the recommendations a commit will persist: approved and
// refined ones. Pending and rejected are discarded when the session ends.
func (s *Session) Eligible() []*Recommendation {
	var out []*Recommendation
	for _, rec := range s.recs {
		if rec.Status == StatusApproved || rec.Status == StatusRefined {
			out = append(out, rec)
		}
	}
	return out
}
