package profile

import (
	"fmt"
	"time"
)

// InputType tags how a source was originally captured.
type InputType string

const (
	InputVoice InputType = "voice"
	InputText  InputType = "text"
	InputFile  InputType = "file"
)

// Source is one raw contribution to a field. Sources are owned exclusively
// by their field; removing the last one decays the field back to empty.
type Source struct {
	ID         string    `json:"id"`
	RawContent string    `json:"raw_content"`
	CapturedAt time.Time `json:"captured_at"`
	InputType  InputType `json:"input_type"`
	Snippet    string    `json:"snippet,omitempty"`
	Confidence float64   `json:"confidence,omitempty"` // 0 = not tracked upstream
}

// Field is the atomic unit of profile knowledge. FullContext and Summary are
// synthesized from the sources; an empty FullContext means the field is empty.
type Field struct {
	Key               FieldKey   `json:"key"`
	FullContext       string     `json:"full_context,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	SynthesisVersion  int        `json:"synthesis_version"`
	LastSynthesizedAt *time.Time `json:"last_synthesized_at,omitempty"`
	Sources           []Source   `json:"sources,omitempty"`
}

// Empty reports whether the field holds no synthesized knowledge.
func (f *Field) Empty() bool {
	return f.FullContext == ""
}

// HasSource reports whether an identical (sourceID, rawContent) pair is
// already attached. This is what makes re-committing the same batch a no-op.
func (f *Field) HasSource(id, rawContent string) bool {
	for _, s := range f.Sources {
		if s.ID == id && s.RawContent == rawContent {
			return true
		}
	}
	return false
}

// CheckInvariant verifies synthesisVersion > 0 iff the field has synthesized
// content backed by at least one source.
func (f *Field) CheckInvariant() error {
	synthesized := f.SynthesisVersion > 0
	backed := f.FullContext != "" && len(f.Sources) > 0
	if synthesized != backed {
		return fmt.Errorf("field %s: synthesis_version=%d, full_context set=%t, sources=%d",
			f.Key, f.SynthesisVersion, f.FullContext != "", len(f.Sources))
	}
	return nil
}

// Subsection owns an ordered sequence of fields.
type Subsection struct {
	Key    SubsectionKey `json:"key"`
	Label  string        `json:"label"`
	Order  int           `json:"order"`
	Fields []Field       `json:"fields"`
}

// Section owns an ordered sequence of subsections.
type Section struct {
	Key         SectionKey   `json:"key"`
	Label       string       `json:"label"`
	Order       int          `json:"order"`
	Subsections []Subsection `json:"subsections"`
}

// Profile is the root aggregate for one subject. Its shape is fixed at
// creation time by the schema; only field contents mutate afterwards.
// Scores are always derived, never stored here.
type Profile struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	Sections  []Section `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New builds an empty profile from the registered schema for kind.
func New(kind Kind, name string, now time.Time) (*Profile, error) {
	schema, err := SchemaFor(kind)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		Kind:      kind,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for si, sec := range schema.Sections {
		section := Section{Key: sec.Key, Label: sec.Label, Order: si}
		for bi, sub := range sec.Subsections {
			subsection := Subsection{Key: sub.Key, Label: sub.Label, Order: bi}
			for _, f := range sub.Fields {
				subsection.Fields = append(subsection.Fields, Field{Key: f.Key})
			}
			section.Subsections = append(section.Subsections, subsection)
		}
		p.Sections = append(p.Sections, section)
	}
	return p, nil
}

// Field returns a pointer to the addressed field within the profile.
func (p *Profile) Field(section SectionKey, subsection SubsectionKey, field FieldKey) (*Field, error) {
	for si := range p.Sections {
		if p.Sections[si].Key != section {
			continue
		}
		for bi := range p.Sections[si].Subsections {
			if p.Sections[si].Subsections[bi].Key != subsection {
				continue
			}
			for fi := range p.Sections[si].Subsections[bi].Fields {
				if p.Sections[si].Subsections[bi].Fields[fi].Key == field {
					return &p.Sections[si].Subsections[bi].Fields[fi], nil
				}
			}
		}
	}
	return nil, fmt.Errorf("%w: %s/%s/%s", ErrUnknownTarget, section, subsection, field)
}

// Clone deep-copies the profile. Commits mutate a clone and only publish it
// after the save succeeds, so a failed commit leaves no partial updates.
func (p *Profile) Clone() *Profile {
	cp := *p
	cp.Sections = make([]Section, len(p.Sections))
	for si, sec := range p.Sections {
		cs := sec
		cs.Subsections = make([]Subsection, len(sec.Subsections))
		for bi, sub := range sec.Subsections {
			cb := sub
			cb.Fields = make([]Field, len(sub.Fields))
			for fi, f := range sub.Fields {
				cf := f
				if f.LastSynthesizedAt != nil {
					t := *f.LastSynthesizedAt
					cf.LastSynthesizedAt = &t
				}
				cf.Sources = make([]Source, len(f.Sources))
				copy(cf.Sources, f.Sources)
				cb.Fields[fi] = cf
			}
			cs.Subsections[bi] = cb
		}
		cp.Sections[si] = cs
	}
	return &cp
}
