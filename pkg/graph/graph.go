// Package graph defines the long-term knowledge graph of candidates,
// evidence, skills and traits, and the driver interface its backends
// implement. The graph is the single source of truth shared by extraction
// workers and report queries.
//
// Node identity rules: one Candidate per session, one Skill/Trait per
// distinct name shared across all candidates (merge-by-name), and a fresh
// Evidence node per persisted observation; identical quotes from different
// turns are distinct facts and are never deduplicated.
package graph

import (
	"context"
	"time"

	"github.com/quietgrove/dossier/pkg/ontology"
)

// Observation is a validated fact to persist. At least one of Skill or
// Trait is set by the time it reaches a driver.
type Observation struct {
	Skill          string
	SkillDomain    string
	Trait          string
	TraitIntensity ontology.Intensity
	Evidence       string
}

// Intensity returns the trait intensity, defaulting to Moderate when
// extraction omitted it.
func (o Observation) Intensity() ontology.Intensity {
	if o.TraitIntensity.Valid() {
		return o.TraitIntensity
	}
	return ontology.IntensityModerate
}

// SkillEvidence is one skill with all quotes supporting it for a candidate.
type SkillEvidence struct {
	Skill    string   `json:"skill"`
	Domain   string   `json:"domain"`
	Evidence []string `json:"evidence_points"`
}

// TraitQuote is a single quote with the intensity its edge carries.
type TraitQuote struct {
	Text      string             `json:"text"`
	Intensity ontology.Intensity `json:"intensity"`
}

// TraitEvidence is one trait with all quotes supporting it for a candidate.
type TraitEvidence struct {
	Trait    string       `json:"trait"`
	Evidence []TraitQuote `json:"evidence_points"`
}

// DomainEvidence is one timestamped quote within a domain deep dive.
type DomainEvidence struct {
	Skill     string    `json:"skill"`
	Evidence  string    `json:"evidence"`
	Timestamp time.Time `json:"timestamp"`
}

// Driver is the interface graph backends implement.
type Driver interface {
	// Persist writes one observation for a session and returns the new
	// evidence id. The write is atomic: the candidate is merged on create,
	// a fresh evidence node is always created, and skill/trait nodes are
	// merged by name with their links. Any failing step aborts the whole
	// persist.
	Persist(ctx context.Context, sessionID string, obs Observation) (string, error)

	// SkillEvidence returns all skills demonstrated by the session's
	// candidate with their quotes, ordered by domain then skill name.
	SkillEvidence(ctx context.Context, sessionID string) ([]SkillEvidence, error)

	// TraitEvidence returns all traits indicated for the session's
	// candidate with per-quote intensities, ordered by trait name.
	TraitEvidence(ctx context.Context, sessionID string) ([]TraitEvidence, error)

	// DomainEvidence returns the timestamped quotes for one domain,
	// ordered by skill name then timestamp.
	DomainEvidence(ctx context.Context, sessionID, domain string) ([]DomainEvidence, error)

	// Close releases backend resources.
	Close() error
}
