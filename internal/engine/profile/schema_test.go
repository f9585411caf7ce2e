package profile

import (
	"errors"
	"strings"
	"testing"
)

func TestSchemaFor(t *testing.T) {
	for _, kind := range Kinds() {
		s, err := SchemaFor(kind)
		if err != nil {
			t.Fatalf("SchemaFor(%s): %v", kind, err)
		}
		if s.Kind != kind {
			t.Errorf("schema kind = %s, want %s", s.Kind, kind)
		}
		if len(s.Sections) == 0 {
			t.Errorf("schema %s has no sections", kind)
		}
	}

	if _, err := SchemaFor("martian"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("got %v, want ErrUnknownKind", err)
	}
}

func TestResolveTarget(t *testing.T) {
	schema, _ := SchemaFor(KindProspect)

	tests := []struct {
		name                       string
		section, subsection, field string
		wantErr                    bool
	}{
		{"valid", "goals", "outcomes", "primary_goal", false},
		{"valid deep", "resources", "team", "champions", false},
		{"unknown section", "nope", "outcomes", "primary_goal", true},
		{"unknown subsection", "goals", "nope", "primary_goal", true},
		{"unknown field", "goals", "outcomes", "nope", true},
		{"field from another subsection", "goals", "timeline", "primary_goal", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec, sub, f, err := schema.ResolveTarget(tt.section, tt.subsection, tt.field)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownTarget) {
					t.Errorf("got %v, want ErrUnknownTarget", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(sec) != tt.section || string(sub) != tt.subsection || string(f) != tt.field {
				t.Errorf("resolved %s/%s/%s, want %s/%s/%s", sec, sub, f, tt.section, tt.subsection, tt.field)
			}
		})
	}
}

func TestTargetList(t *testing.T) {
	prospect, _ := SchemaFor(KindProspect)
	if got := len(prospect.TargetList()); got != 20 {
		t.Errorf("prospect targets = %d, want 20", got)
	}
	canvas, _ := SchemaFor(KindCanvas)
	if got := len(canvas.TargetList()); got != 12 {
		t.Errorf("canvas targets = %d, want 12", got)
	}

	// Every listed target must resolve back.
	for _, kind := range Kinds() {
		schema, _ := SchemaFor(kind)
		for _, target := range schema.TargetList() {
			parts := strings.Split(target, "/")
			if len(parts) != 3 {
				t.Fatalf("unparseable target %q", target)
			}
			if _, _, _, err := schema.ResolveTarget(parts[0], parts[1], parts[2]); err != nil {
				t.Errorf("target %q does not resolve: %v", target, err)
			}
		}
	}
}
