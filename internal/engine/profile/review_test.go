package profile

import (
	"errors"
	"testing"
)

func testChunks() []ExtractionChunk {
	return []ExtractionChunk{
		{TargetSection: "goals", TargetSubsection: "outcomes", TargetField: "primary_goal",
			Content: "ship the migration by Q4", Summary: "Q4 migration", Confidence: 0.9},
		{TargetSection: "goals", TargetSubsection: "outcomes", TargetField: "primary_goal",
			Content: "hard deadline from the board", Summary: "board deadline", Confidence: 0.95},
		{TargetSection: "resources", TargetSubsection: "budget", TargetField: "budget_range",
			Content: "roughly 50k", Summary: "50k budget", Confidence: 0.5},
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	return NewSession("rs-1", 7, KindProspect, testChunks())
}

func TestNewSessionStartsPending(t *testing.T) {
	sess := newTestSession(t)
	recs := sess.List()
	if len(recs) != 3 {
		t.Fatalf("recommendations = %d, want 3", len(recs))
	}
	for i, rec := range recs {
		if rec.Status != StatusPending {
			t.Errorf("rec %d status = %s, want pending", i, rec.Status)
		}
	}
	if recs[0].ID != "rs-1-1" || recs[2].ID != "rs-1-3" {
		t.Errorf("unexpected IDs: %s, %s", recs[0].ID, recs[2].ID)
	}
}

func TestApproveRejectTransitions(t *testing.T) {
	sess := newTestSession(t)

	if err := sess.Approve("rs-1-1"); err != nil {
		t.Fatal(err)
	}
	if err := sess.Reject("rs-1-2"); err != nil {
		t.Fatal(err)
	}

	// Approving a non-pending recommendation is illegal.
	if err := sess.Approve("rs-1-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-approve: got %v, want ErrInvalidTransition", err)
	}
	if err := sess.Reject("rs-1-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reject approved: got %v, want ErrInvalidTransition", err)
	}
	if err := sess.Approve("nope"); !errors.Is(err, ErrRecommendationNotFound) {
		t.Errorf("unknown id: got %v, want ErrRecommendationNotFound", err)
	}
}

func TestUndoReturnsToPendingAndClearsRefinement(t *testing.T) {
	sess := newTestSession(t)

	if err := sess.Refine("rs-1-1", "refined text", "refined summary"); err != nil {
		t.Fatal(err)
	}
	rec, _ := sess.Get("rs-1-1")
	if rec.Status != StatusRefined || rec.EffectiveContent() != "refined text" {
		t.Fatalf("refine did not take: %+v", rec)
	}

	if err := sess.Undo("rs-1-1"); err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusPending {
		t.Errorf("status after undo = %s, want pending", rec.Status)
	}
	if rec.RefinedContent != "" || rec.RefinedSummary != "" {
		t.Error("undo must clear refinement")
	}
	if rec.EffectiveContent() != "ship the migration by Q4" {
		t.Errorf("effective content after undo = %q", rec.EffectiveContent())
	}

	// Undo from pending is illegal.
	if err := sess.Undo("rs-1-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("undo pending: got %v, want ErrInvalidTransition", err)
	}
}

func TestRefineOnlyFromPending(t *testing.T) {
	sess := newTestSession(t)
	if err := sess.Approve("rs-1-1"); err != nil {
		t.Fatal(err)
	}
	if err := sess.Refine("rs-1-1", "x", "y"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("refine approved: got %v, want ErrInvalidTransition", err)
	}
}

func TestApproveAllGatesOnLowConfidence(t *testing.T) {
	sess := newTestSession(t) // threshold 0.7, one chunk at 0.5

	res := sess.ApproveAll(false)
	if !res.Gated {
		t.Fatal("expected gate to trip")
	}
	if res.Approved != 0 {
		t.Errorf("approved = %d, want 0 (gate must not partially apply)", res.Approved)
	}
	if len(res.LowConfidence) != 1 || res.LowConfidence[0] != "rs-1-3" {
		t.Errorf("low confidence = %v, want [rs-1-3]", res.LowConfidence)
	}
	for _, rec := range sess.List() {
		if rec.Status != StatusPending {
			t.Errorf("rec %s mutated by gated approve", rec.ID)
		}
	}

	// Override approves everything, including the low-confidence one.
	res = sess.ApproveAll(true)
	if res.Gated || res.Approved != 3 {
		t.Errorf("override: gated=%v approved=%d, want 3 approved", res.Gated, res.Approved)
	}
}

func TestApproveAllSkipsTriaged(t *testing.T) {
	sess := newTestSession(t)
	if err := sess.Reject("rs-1-3"); err != nil { // the low-confidence one
		t.Fatal(err)
	}

	// With the low-confidence chunk already rejected, no gate applies.
	res := sess.ApproveAll(false)
	if res.Gated {
		t.Fatal("gate tripped on a non-pending recommendation")
	}
	if res.Approved != 2 {
		t.Errorf("approved = %d, want 2", res.Approved)
	}
	rec, _ := sess.Get("rs-1-3")
	if rec.Status != StatusRejected {
		t.Error("bulk approve touched a rejected recommendation")
	}
}

func TestApproveSection(t *testing.T) {
	sess := newTestSession(t)

	// goals section contains only high-confidence chunks: no gate.
	res := sess.ApproveSection("goals", false)
	if res.Gated || res.Approved != 2 {
		t.Fatalf("goals: gated=%v approved=%d, want 2", res.Gated, res.Approved)
	}
	rec, _ := sess.Get("rs-1-3")
	if rec.Status != StatusPending {
		t.Error("section approve leaked outside the section")
	}

	// resources section holds the 0.5-confidence chunk: gated.
	res = sess.ApproveSection("resources", false)
	if !res.Gated {
		t.Fatal("expected resources gate")
	}
	res = sess.ApproveSection("resources", true)
	if res.Approved != 1 {
		t.Errorf("resources override approved = %d, want 1", res.Approved)
	}
}

func TestEligible(t *testing.T) {
	sess := newTestSession(t)
	if err := sess.Approve("rs-1-1"); err != nil {
		t.Fatal(err)
	}
	if err := sess.Refine("rs-1-2", "refined", ""); err != nil {
		t.Fatal(err)
	}
	if err := sess.Reject("rs-1-3"); err != nil {
		t.Fatal(err)
	}

	eligible := sess.Eligible()
	if len(eligible) != 2 {
		t.Fatalf("eligible = %d, want 2 (approved + refined)", len(eligible))
	}
	for _, rec := range eligible {
		if rec.Status != StatusApproved && rec.Status != StatusRefined {
			t.Errorf("ineligible status %s leaked into eligible set", rec.Status)
		}
	}
}

func TestGroupBySection(t *testing.T) {
	sess := newTestSession(t)
	groups := sess.GroupBySection()
	if len(groups["goals"]) != 2 || len(groups["resources"]) != 1 {
		t.Errorf("groups: goals=%d resources=%d", len(groups["goals"]), len(groups["resources"]))
	}
	keys := sess.SectionKeys()
	if len(keys) != 2 || keys[0] != "goals" || keys[1] != "resources" {
		t.Errorf("section keys = %v", keys)
	}
}
