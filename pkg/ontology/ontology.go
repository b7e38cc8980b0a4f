// Package ontology defines the closed vocabulary of skills and personality
// traits that extraction is validated against. The skill hierarchy follows the
// Critical Core Skills (CCS) framework; traits are the Big Five (OCEAN).
// The registry is fixed at compile time and holds no mutable state.
package ontology

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Intensity grades how strongly a trait is indicated by a piece of evidence.
type Intensity string

const (
	IntensityLow      Intensity = "Low"
	IntensityModerate Intensity = "Moderate"
	IntensityHigh     Intensity = "High"
)

// Valid reports whether i is one of the three recognized intensity grades.
func (i Intensity) Valid() bool {
	switch i {
	case IntensityLow, IntensityModerate, IntensityHigh:
		return true
	}
	return false
}

// SkillHierarchy maps each CCS domain to its member skills.
var SkillHierarchy = map[string][]string{
	"Thinking Critically": {
		"Creative Thinking",
		"Decision Making",
		"Problem Solving",
		"Sense Making",
		"Transdisciplinary Thinking",
	},
	"Interacting with Others": {
		"Building Inclusivity",
		"Collaboration",
		"Communication",
		"Customer Orientation",
		"Developing People",
		"Influence",
	},
	"Staying Relevant": {
		"Adaptability",
		"Digital Fluency",
		"Global Perspective",
		"Learning Agility",
		"Self Management",
	},
}

// Traits lists the OCEAN personality traits.
var Traits = []string{
	"Openness",
	"Conscientiousness",
	"Extraversion",
	"Agreeableness",
	"Neuroticism",
}

// skillDomains is the inverted SkillHierarchy, built once at init.
var skillDomains = func() map[string]string {
	m := make(map[string]string)
	for domain, skills := range SkillHierarchy {
		for _, s := range skills {
			m[s] = domain
		}
	}
	return m
}()

var traitSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Traits))
	for _, t := range Traits {
		m[t] = struct{}{}
	}
	return m
}()

// ValidSkill reports whether name exactly matches a registered skill.
func ValidSkill(name string) bool {
	_, ok := skillDomains[name]
	return ok
}

// ValidTrait reports whether name exactly matches a registered trait.
func ValidTrait(name string) bool {
	_, ok := traitSet[name]
	return ok
}

// SkillDomain returns the parent domain for a skill, or "" if the skill is
// not in the registry.
func SkillDomain(name string) string {
	return skillDomains[name]
}

// ValidDomain reports whether name is one of the CCS domains.
func ValidDomain(name string) bool {
	_, ok := SkillHierarchy[name]
	return ok
}

// Domains returns the CCS domain names in sorted order.
func Domains() []string {
	out := make([]string, 0, len(SkillHierarchy))
	for d := range SkillHierarchy {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Skills returns all registered skill names in sorted order.
func Skills() []string {
	out := make([]string, 0, len(skillDomains))
	for s := range skillDomains {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Instructions renders the assessor prompt handed to the classification
// oracle. The skill hierarchy and trait list are embedded verbatim so the
// oracle only ever sees the closed vocabulary.
func Instructions() string {
	hier, _ := json.MarshalIndent(SkillHierarchy, "", "  ")
	traits, _ := json.Marshal(Traits)

	return fmt.Sprintf(`You are an expert Interview Assessor. Your goal is to extract structured data from the candidate's responses.

RULES:
1. Identify if the candidate demonstrates any of the following SKILLS: %s
2. Identify if the candidate exhibits any of the following PERSONALITY TRAITS: %s
3. **CRITICAL:** Include the exact quote from the candidate as evidence.
4. Do NOT create new Skill names. Map strictly to the provided lists.
5. Rate trait intensity as: Low, Moderate, or High based on the strength of evidence.
6. If unclear, do not force a classification. Skip ambiguous content.

OUTPUT FORMAT:
Return a JSON object with an "observations" array. Each observation has:
- skill: The skill name (from the hierarchy) or null
- skill_domain: The parent domain of the skill or null
- trait: The personality trait or null
- trait_intensity: Low/Moderate/High or null
- evidence: The exact quote supporting this classification`, hier, traits)
}
