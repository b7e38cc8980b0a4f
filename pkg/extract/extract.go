// Package extract turns raw conversational text into candidate observations
// via the classification oracle, and validates them against the ontology
// registry. Extraction output is untrusted until validated.
package extract

import (
	"strings"

	"github.com/quietgrove/dossier/pkg/ontology"
)

// MinWords is the minimum whitespace-delimited word count for a turn to be
// worth sending to the oracle. Short acknowledgements carry no signal.
const MinWords = 10

// evidenceFallbackLen caps the quote substituted when the oracle omits
// evidence.
const evidenceFallbackLen = 200

// Observation is one candidate fact proposed by the oracle. Before
// validation any field may be missing or name something outside the
// registry.
type Observation struct {
	Skill          string             `json:"skill,omitempty"`
	SkillDomain    string             `json:"skill_domain,omitempty"`
	Trait          string             `json:"trait,omitempty"`
	TraitIntensity ontology.Intensity `json:"trait_intensity,omitempty"`
	Evidence       string             `json:"evidence,omitempty"`
}

// ShouldExtract reports whether text is substantial enough to warrant
// cold-path analysis. This is a cheap pre-filter, not a correctness gate:
// false negatives only delay extraction coverage.
func ShouldExtract(text string) bool {
	return len(strings.Fields(text)) >= MinWords
}

// Validate filters a raw observation against the registry. Skill and trait
// names must match registry entries exactly or are dropped; a kept skill
// with no supplied domain gets its domain resolved by lookup. Evidence is
// preserved unchanged, falling back to a truncated quote of sourceText when
// the oracle omitted it. Returns false when neither a skill nor a trait
// survives, since such an observation carries no actionable signal.
func Validate(obs Observation, sourceText string) (Observation, bool) {
	if !ontology.ValidSkill(obs.Skill) {
		obs.Skill = ""
		obs.SkillDomain = ""
	} else if obs.SkillDomain == "" {
		obs.SkillDomain = ontology.SkillDomain(obs.Skill)
	}

	if !ontology.ValidTrait(obs.Trait) {
		obs.Trait = ""
		obs.TraitIntensity = ""
	} else if !obs.TraitIntensity.Valid() {
		// The writer applies the Moderate default; an unrecognized grade
		// is treated the same as an omitted one.
		obs.TraitIntensity = ""
	}

	if obs.Skill == "" && obs.Trait == "" {
		return Observation{}, false
	}

	if obs.Evidence == "" {
		obs.Evidence = truncate(sourceText, evidenceFallbackLen)
	}

	return obs, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
