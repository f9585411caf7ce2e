package profile

import "fmt"

// Kind selects which profile schema a profile is built from.
type Kind string

const (
	// KindProspect is the Central Command discovery schema for a sales prospect.
	KindProspect Kind = "prospect"
	// KindCanvas is the Clarity Canvas self-profiling schema.
	KindCanvas Kind = "canvas"
)

// Typed keys for the three-level containment hierarchy. Targets arrive from
// the extraction collaborator as free-form strings and are validated against
// the registered schema before anything downstream sees them.
type (
	SectionKey    string
	SubsectionKey string
	FieldKey      string
)

// FieldDef declares one field in a schema.
type FieldDef struct {
	Key   FieldKey
	Label string
}

// SubsectionDef declares one subsection and its fields.
type SubsectionDef struct {
	Key    SubsectionKey
	Label  string
	Fields []FieldDef
}

// SectionDef declares one section and its subsections.
type SectionDef struct {
	Key         SectionKey
	Label       string
	Subsections []SubsectionDef
}

// Schema is the closed shape of one profile kind. Sections keep their
// declaration order; that order drives deterministic commit application.
type Schema struct {
	Kind     Kind
	Sections []SectionDef
}

var prospectSchema = Schema{
	Kind: KindProspect,
	Sections: []SectionDef{
		{Key: "identity", Label: "Identity", Subsections: []SubsectionDef{
			{Key: "background", Label: "Background", Fields: []FieldDef{
				{Key: "role", Label: "Role & Title"},
				{Key: "company", Label: "Company"},
				{Key: "history", Label: "Professional History"},
			}},
			{Key: "context", Label: "Context", Fields: []FieldDef{
				{Key: "industry", Label: "Industry"},
				{Key: "team_size", Label: "Team Size"},
			}},
		}},
		{Key: "goals", Label: "Goals", Subsections: []SubsectionDef{
			{Key: "outcomes", Label: "Outcomes", Fields: []FieldDef{
				{Key: "primary_goal", Label: "Primary Goal"},
				{Key: "success_metrics", Label: "Success Metrics"},
			}},
			{Key: "timeline", Label: "Timeline", Fields: []FieldDef{
				{Key: "target_date", Label: "Target Date"},
				{Key: "urgency", Label: "Urgency"},
			}},
		}},
		{Key: "challenges", Label: "Challenges", Subsections: []SubsectionDef{
			{Key: "blockers", Label: "Blockers", Fields: []FieldDef{
				{Key: "current_obstacles", Label: "Current Obstacles"},
				{Key: "past_attempts", Label: "Past Attempts"},
			}},
			{Key: "risks", Label: "Risks", Fields: []FieldDef{
				{Key: "cost_of_inaction", Label: "Cost of Inaction"},
			}},
		}},
		{Key: "process", Label: "Process", Subsections: []SubsectionDef{
			{Key: "decision", Label: "Decision", Fields: []FieldDef{
				{Key: "decision_makers", Label: "Decision Makers"},
				{Key: "approval_steps", Label: "Approval Steps"},
			}},
			{Key: "evaluation", Label: "Evaluation", Fields: []FieldDef{
				{Key: "criteria", Label: "Evaluation Criteria"},
				{Key: "alternatives", Label: "Alternatives Considered"},
			}},
		}},
		{Key: "resources", Label: "Resources", Subsections: []SubsectionDef{
			{Key: "budget", Label: "Budget", Fields: []FieldDef{
				{Key: "budget_range", Label: "Budget Range"},
				{Key: "funding_status", Label: "Funding Status"},
			}},
			{Key: "team", Label: "Team", Fields: []FieldDef{
				{Key: "champions", Label: "Internal Champions"},
				{Key: "capacity", Label: "Team Capacity"},
			}},
		}},
	},
}

var canvasSchema = Schema{
	Kind: KindCanvas,
	Sections: []SectionDef{
		{Key: "identity", Label: "Identity", Subsections: []SubsectionDef{
			{Key: "story", Label: "Story", Fields: []FieldDef{
				{Key: "background", Label: "Background"},
				{Key: "journey", Label: "Journey"},
			}},
			{Key: "values", Label: "Values", Fields: []FieldDef{
				{Key: "core_values", Label: "Core Values"},
				{Key: "principles", Label: "Operating Principles"},
			}},
		}},
		{Key: "strengths", Label: "Strengths", Subsections: []SubsectionDef{
			{Key: "skills", Label: "Skills", Fields: []FieldDef{
				{Key: "expertise", Label: "Expertise"},
				{Key: "differentiators", Label: "Differentiators"},
			}},
			{Key: "proof", Label: "Proof", Fields: []FieldDef{
				{Key: "wins", Label: "Notable Wins"},
				{Key: "testimonials", Label: "Testimonials"},
			}},
		}},
		{Key: "vision", Label: "Vision", Subsections: []SubsectionDef{
			{Key: "direction", Label: "Direction", Fields: []FieldDef{
				{Key: "mission", Label: "Mission"},
				{Key: "ideal_client", Label: "Ideal Client"},
			}},
			{Key: "offer", Label: "Offer", Fields: []FieldDef{
				{Key: "services", Label: "Services"},
				{Key: "positioning", Label: "Positioning"},
			}},
		}},
	},
}

var schemas = map[Kind]Schema{
	KindProspect: prospectSchema,
	KindCanvas:   canvasSchema,
}

// SchemaFor returns the registered schema for a kind.
func SchemaFor(kind Kind) (Schema, error) {
	s, ok := schemas[kind]
	if !ok {
		return Schema{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return s, nil
}

// Kinds returns all registered profile kinds.
func Kinds() []Kind {
	return []Kind{KindProspect, KindCanvas}
}

// Section returns the section definition for key, if present.
func (s Schema) Section(key SectionKey) (SectionDef, bool) {
	for _, sec := range s.Sections {
		if sec.Key == key {
			return sec, true
		}
	}
	return SectionDef{}, false
}

// ResolveTarget validates a raw (section, subsection, field) triple against
// the schema and returns the typed keys.
func (s Schema) ResolveTarget(section, subsection, field string) (SectionKey, SubsectionKey, FieldKey, error) {
	sec, ok := s.Section(SectionKey(section))
	if !ok {
		return "", "", "", fmt.Errorf("%w: section %q", ErrUnknownTarget, section)
	}
	for _, sub := range sec.Subsections {
		if sub.Key != SubsectionKey(subsection) {
			continue
		}
		for _, f := range sub.Fields {
			if f.Key == FieldKey(field) {
				return sec.Key, sub.Key, f.Key, nil
			}
		}
		return "", "", "", fmt.Errorf("%w: field %q in %s/%s", ErrUnknownTarget, field, section, subsection)
	}
	return "", "", "", fmt.Errorf("%w: subsection %q in %s", ErrUnknownTarget, subsection, section)
}

// TargetList renders every valid target triple as "section/subsection/field",
// used to constrain the extraction prompt.
func (s Schema) TargetList() []string {
	var out []string
	for _, sec := range s.Sections {
		for _, sub := range sec.Subsections {
			for _, f := range sub.Fields {
				out = append(out, fmt.Sprintf("%s/%s/%s", sec.Key, sub.Key, f.Key))
			}
		}
	}
	return out
}
