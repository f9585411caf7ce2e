package canvasserver

import (
	"context"
	"errors"
	"time"

	"github.com/centralcmd/go_canvas/internal/engine/profile"
	"github.com/centralcmd/go_canvas/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ProfileCreateInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"Profile kind: prospect (default) or canvas"`
	Name string `json:"name" jsonschema:"Display name for the profile subject"`
}

type ProfileCreateOutput struct {
	ID      int64    `json:"id"`
	Kind    string   `json:"kind"`
	Name    string   `json:"name"`
	Targets []string `json:"targets"`
}

func registerProfileCreate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "profile_create",
		Description: "Create an empty profile of the given kind: prospect (client discovery) or canvas (self profile). Returns the profile ID and the list of section/subsection/field targets its schema defines.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ProfileCreateInput) (*mcp.CallToolResult, *ProfileCreateOutput, error) {
		if input.Name == "" {
			return nil, nil, errors.New("name is required")
		}
		kind := profile.Kind(toolutil.NormKind(input.Kind))
		schema, err := profile.SchemaFor(kind)
		if err != nil {
			return nil, nil, err
		}
		p, err := store.Create(ctx, kind, input.Name)
		if err != nil {
			return nil, nil, err
		}
		return nil, &ProfileCreateOutput{
			ID:      p.ID,
			Kind:    string(p.Kind),
			Name:    p.Name,
			Targets: schema.TargetList(),
		}, nil
	})
}

type ProfileGetInput struct {
	ProfileID int64  `json:"profile_id" jsonschema:"Profile ID from profile_create or profile_list"`
	Section   string `json:"section,omitempty" jsonschema:"Limit output to one section key"`
}

type FieldView struct {
	Key              string  `json:"key"`
	Summary          string  `json:"summary,omitempty"`
	FullContext      string  `json:"full_context,omitempty"`
	SynthesisVersion int     `json:"synthesis_version"`
	SourceCount      int     `json:"source_count"`
	Score            int     `json:"score"`
	Bucket           string  `json:"bucket"`
	Fresh            bool    `json:"fresh,omitempty"`
	Confidence       float64 `json:"confidence,omitempty"`
}

// freshWindow is how long after synthesis a field shows as freshly updated.
const freshWindow = 10 * time.Minute

type SubsectionView struct {
	Key    string      `json:"key"`
	Label  string      `json:"label"`
	Fields []FieldView `json:"fields"`
}

type SectionView struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Score       int              `json:"score"`
	Bucket      string           `json:"bucket"`
	Subsections []SubsectionView `json:"subsections"`
}

type ProfileGetOutput struct {
	ID            int64         `json:"id"`
	Kind          string        `json:"kind"`
	Name          string        `json:"name"`
	OverallScore  int           `json:"overall_score"`
	OverallBucket string        `json:"overall_bucket"`
	Sections      []SectionView `json:"sections"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func registerProfileGet(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "profile_get",
		Description: "Read a profile with completeness scores computed live at every level (field, section, overall) plus qualitative buckets: strong, developing, weak, empty. Optionally limit to one section.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ProfileGetInput) (*mcp.CallToolResult, *ProfileGetOutput, error) {
		if input.ProfileID <= 0 {
			return nil, nil, errors.New("profile_id is required")
		}
		p, err := store.Load(ctx, input.ProfileID)
		if err != nil {
			return nil, nil, err
		}
		scores := profile.ComputeScores(p)
		now := time.Now()

		out := &ProfileGetOutput{
			ID:            p.ID,
			Kind:          string(p.Kind),
			Name:          p.Name,
			OverallScore:  scores.Overall,
			OverallBucket: string(profile.Bucket(scores.Overall)),
			UpdatedAt:     p.UpdatedAt,
		}
		for _, sec := range p.Sections {
			if input.Section != "" && string(sec.Key) != input.Section {
				continue
			}
			sv := SectionView{
				Key:    string(sec.Key),
				Label:  sec.Label,
				Score:  scores.Sections[sec.Key],
				Bucket: string(profile.Bucket(scores.Sections[sec.Key])),
			}
			for _, sub := range sec.Subsections {
				subv := SubsectionView{Key: string(sub.Key), Label: sub.Label}
				for _, f := range sub.Fields {
					score := profile.FieldScore(f)
					subv.Fields = append(subv.Fields, FieldView{
						Key:              string(f.Key),
						Summary:          f.Summary,
						FullContext:      f.FullContext,
						SynthesisVersion: f.SynthesisVersion,
						SourceCount:      len(f.Sources),
						Score:            score,
						Bucket:           string(profile.Bucket(score)),
						Fresh:            profile.RecentlySynthesized(f, now, freshWindow),
						Confidence:       profile.FieldConfidence(f),
					})
				}
				sv.Subsections = append(sv.Subsections, subv)
			}
			out.Sections = append(out.Sections, sv)
		}
		if input.Section != "" && len(out.Sections) == 0 {
			return nil, nil, profile.ErrUnknownTarget
		}
		return nil, out, nil
	})
}

type ProfileListInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"Filter by kind: prospect or canvas"`
}

type ProfileListOutput struct {
	Profiles []profile.ProfileInfo `json:"profiles"`
}

func registerProfileList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "profile_list",
		Description: "List stored profiles sorted by most recently updated. Optionally filter by kind.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ProfileListInput) (*mcp.CallToolResult, *ProfileListOutput, error) {
		infos, err := store.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		out := &ProfileListOutput{}
		for _, info := range infos {
			if input.Kind != "" && string(info.Kind) != input.Kind {
				continue
			}
			out.Profiles = append(out.Profiles, info)
		}
		return nil, out, nil
	})
}

type SourceRemoveInput struct {
	ProfileID  int64  `json:"profile_id" jsonschema:"Profile ID"`
	Section    string `json:"section" jsonschema:"Section key of the field"`
	Subsection string `json:"subsection" jsonschema:"Subsection key of the field"`
	Field      string `json:"field" jsonschema:"Field key"`
	SourceID   string `json:"source_id" jsonschema:"ID of the source to remove"`
}

type SourceRemoveOutput struct {
	FieldEmpty       bool `json:"field_empty"`
	SynthesisVersion int  `json:"synthesis_version"`
	RemainingSources int  `json:"remaining_sources"`
	OverallScore     int  `json:"overall_score"`
}

func registerProfileSourceRemove(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "profile_source_remove",
		Description: "Remove one source from a field and re-synthesize the field from the remaining sources. Removing the last source empties the field.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input SourceRemoveInput) (*mcp.CallToolResult, *SourceRemoveOutput, error) {
		if input.ProfileID <= 0 || input.SourceID == "" {
			return nil, nil, errors.New("profile_id and source_id are required")
		}
		p, err := store.Load(ctx, input.ProfileID)
		if err != nil {
			return nil, nil, err
		}
		schema, err := profile.SchemaFor(p.Kind)
		if err != nil {
			return nil, nil, err
		}
		sec, sub, key, err := schema.ResolveTarget(input.Section, input.Subsection, input.Field)
		if err != nil {
			return nil, nil, err
		}
		f, err := p.Field(sec, sub, key)
		if err != nil {
			return nil, nil, err
		}
		ref := profile.FieldRef{Kind: p.Kind, Section: sec, Subsection: sub, Field: key}
		if err := synth.RemoveSource(ctx, ref, f, input.SourceID); err != nil {
			return nil, nil, err
		}
		p.UpdatedAt = synth.Now().UTC()
		if err := store.Save(ctx, p); err != nil {
			return nil, nil, err
		}
		scores := profile.ComputeScores(p)
		return nil, &SourceRemoveOutput{
			FieldEmpty:       f.Empty(),
			SynthesisVersion: f.SynthesisVersion,
			RemainingSources: len(f.Sources),
			OverallScore:     scores.Overall,
		}, nil
	})
}
