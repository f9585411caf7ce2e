package profile

import (
	"math"
	"strings"
)

// Scores is the derived completeness snapshot of a profile. It is recomputed
// from the profile on every read and never persisted.
type Scores struct {
	Overall  int                `json:"overall"`
	Sections map[SectionKey]int `json:"sections"`
}

// nonEmptyFloor is the minimum score for any field with synthesized content.
const nonEmptyFloor = 20

// FieldScore scores one field in [0,100]. Empty fields score 0. Non-empty
// fields earn a substance-based score (word count of the synthesized context)
// scaled by mean source confidence when the extraction pipeline tracked one,
// but never below the non-empty floor.
func FieldScore(f Field) int {
	if f.Empty() {
		return 0
	}
	words := len(strings.Fields(f.FullContext))
	base := nonEmptyFloor + 2*words
	if base > 100 {
		base = 100
	}

	conf, tracked := meanConfidence(f.Sources)
	if tracked {
		base = int(math.Round(float64(base) * conf))
	}
	if base < nonEmptyFloor {
		base = nonEmptyFloor
	}
	if base > 100 {
		base = 100
	}
	return base
}

// FieldConfidence is the mean confidence of the field's sources, or 0 when
// no source carries one.
func FieldConfidence(f Field) float64 {
	conf, tracked := meanConfidence(f.Sources)
	if !tracked {
		return 0
	}
	return conf
}

// meanConfidence averages the confidence of sources that carry one.
// Returns tracked=false when no source has a confidence value.
func meanConfidence(sources []Source) (float64, bool) {
	sum, n := 0.0, 0
	for _, s := range sources {
		if s.Confidence > 0 {
			sum += s.Confidence
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// SubsectionScore is the rounded mean of the subsection's field scores.
func SubsectionScore(sub Subsection) int {
	if len(sub.Fields) == 0 {
		return 0
	}
	total := 0
	for _, f := range sub.Fields {
		total += FieldScore(f)
	}
	return roundedMean(total, len(sub.Fields))
}

// SectionScore is the rounded mean of the section's subsection scores.
func SectionScore(sec Section) int {
	if len(sec.Subsections) == 0 {
		return 0
	}
	total := 0
	for _, sub := range sec.Subsections {
		total += SubsectionScore(sub)
	}
	return roundedMean(total, len(sec.Subsections))
}

// ComputeScores derives the full score snapshot. Every section weighs the
// same in the overall score regardless of how many fields it holds, so a
// sparse section is not diluted by a dense one.
func ComputeScores(p *Profile) Scores {
	scores := Scores{Sections: make(map[SectionKey]int, len(p.Sections))}
	if len(p.Sections) == 0 {
		return scores
	}
	total := 0
	for _, sec := range p.Sections {
		s := SectionScore(sec)
		scores.Sections[sec.Key] = s
		total += s
	}
	scores.Overall = roundedMean(total, len(p.Sections))
	return scores
}

func roundedMean(total, n int) int {
	return int(math.Round(float64(total) / float64(n)))
}

// BucketName classifies a score for display.
type BucketName string

const (
	BucketStrong     BucketName = "strong"
	BucketDeveloping BucketName = "developing"
	BucketWeak       BucketName = "weak"
	BucketEmpty      BucketName = "empty"
)

// Bucket maps a score to its severity bucket. UI and tests share this single
// source of truth for the thresholds.
func Bucket(score int) BucketName {
	switch {
	case score >= 70:
		return BucketStrong
	case score >= 40:
		return BucketDeveloping
	case score > 0:
		return BucketWeak
	default:
		return BucketEmpty
	}
}
