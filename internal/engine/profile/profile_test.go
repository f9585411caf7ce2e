package profile

import (
	"errors"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func TestNewBuildsSchemaSkeleton(t *testing.T) {
	p, err := New(KindProspect, "Acme Corp", fixedNow())
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind != KindProspect || p.Name != "Acme Corp" {
		t.Errorf("got kind=%s name=%s", p.Kind, p.Name)
	}
	schema, _ := SchemaFor(KindProspect)
	if len(p.Sections) != len(schema.Sections) {
		t.Fatalf("sections = %d, want %d", len(p.Sections), len(schema.Sections))
	}
	for i, sec := range p.Sections {
		if sec.Key != schema.Sections[i].Key {
			t.Errorf("section %d = %s, want %s", i, sec.Key, schema.Sections[i].Key)
		}
		for j, sub := range sec.Subsections {
			if len(sub.Fields) != len(schema.Sections[i].Subsections[j].Fields) {
				t.Errorf("%s/%s field count mismatch", sec.Key, sub.Key)
			}
			for _, f := range sub.Fields {
				if !f.Empty() || f.SynthesisVersion != 0 {
					t.Errorf("field %s not empty at creation", f.Key)
				}
				if err := f.CheckInvariant(); err != nil {
					t.Errorf("invariant violated at creation: %v", err)
				}
			}
		}
	}
}

func TestNewUnknownKind(t *testing.T) {
	_, err := New("martian", "x", fixedNow())
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("got %v, want ErrUnknownKind", err)
	}
}

func TestProfileFieldLookup(t *testing.T) {
	p, err := New(KindProspect, "Acme", fixedNow())
	if err != nil {
		t.Fatal(err)
	}

	f, err := p.Field("goals", "outcomes", "primary_goal")
	if err != nil {
		t.Fatalf("Field() error: %v", err)
	}
	f.FullContext = "ship the migration"

	// The returned pointer must alias the profile, not a copy.
	again, _ := p.Field("goals", "outcomes", "primary_goal")
	if again.FullContext != "ship the migration" {
		t.Error("Field() returned a detached copy")
	}

	if _, err := p.Field("goals", "outcomes", "nonexistent"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("got %v, want ErrUnknownTarget", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p, _ := New(KindCanvas, "me", fixedNow())
	f, _ := p.Field("vision", "offer", "services")
	f.FullContext = "consulting"
	f.SynthesisVersion = 1
	f.Sources = []Source{{ID: "s1", RawContent: "consulting"}}

	clone := p.Clone()
	cf, _ := clone.Field("vision", "offer", "services")
	cf.FullContext = "changed"
	cf.Sources[0].RawContent = "changed"
	cf.Sources = append(cf.Sources, Source{ID: "s2"})

	if f.FullContext != "consulting" {
		t.Error("clone shares field content with original")
	}
	if f.Sources[0].RawContent != "consulting" {
		t.Error("clone shares source backing array with original")
	}
	if len(f.Sources) != 1 {
		t.Error("appending to clone grew the original")
	}
}

func TestFieldCheckInvariant(t *testing.T) {
	tests := []struct {
		name    string
		f       Field
		wantErr bool
	}{
		{"empty field", Field{Key: "a"}, false},
		{"synthesized with source", Field{Key: "a", FullContext: "x", SynthesisVersion: 1,
			Sources: []Source{{ID: "s", RawContent: "x"}}}, false},
		{"version without content", Field{Key: "a", SynthesisVersion: 1}, true},
		{"content without version", Field{Key: "a", FullContext: "x",
			Sources: []Source{{ID: "s"}}}, true},
		{"content without sources", Field{Key: "a", FullContext: "x", SynthesisVersion: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.f.CheckInvariant()
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckInvariant() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHasSource(t *testing.T) {
	f := Field{Sources: []Source{{ID: "s1", RawContent: "alpha"}}}
	if !f.HasSource("s1", "alpha") {
		t.Error("expected match on identical (id, content)")
	}
	if f.HasSource("s1", "beta") {
		t.Error("same id with different content must not match")
	}
	if f.HasSource("s2", "alpha") {
		t.Error("different id must not match")
	}
}
