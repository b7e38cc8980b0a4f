// Package report reads persisted observations back out of the graph and
// aggregates them into candidate assessment reports. It is a pure read
// layer: it never writes to the graph and tolerates concurrently-in-flight
// extraction writes (eventual consistency, not snapshot isolation).
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quietgrove/dossier/pkg/graph"
	"github.com/quietgrove/dossier/pkg/ontology"
)

// StrongDomainThreshold is the total evidence count across a domain's
// skills at which the domain is marked strong.
const StrongDomainThreshold = 3

// SkillEntry summarizes one skill within a domain.
type SkillEntry struct {
	Skill          string   `json:"skill"`
	EvidenceCount  int      `json:"evidence_count"`
	EvidencePoints []string `json:"evidence_points"`
}

// SkillsReport groups a candidate's demonstrated skills by domain.
type SkillsReport struct {
	SessionID      string                  `json:"session_id"`
	SkillsByDomain map[string][]SkillEntry `json:"skills_by_domain"`
	StrongDomains  []string                `json:"strong_domains"`
	TotalEvidence  int                     `json:"total_evidence"`
}

// TraitSummary is one trait with its resolved overall intensity.
type TraitSummary struct {
	Trait          string             `json:"trait"`
	Intensity      ontology.Intensity `json:"intensity"`
	EvidenceCount  int                `json:"evidence_count"`
	EvidencePoints []string           `json:"evidence_points"`
}

// TraitsReport lists a candidate's indicated traits.
type TraitsReport struct {
	SessionID     string         `json:"session_id"`
	Traits        []TraitSummary `json:"traits"`
	TotalEvidence int            `json:"total_evidence"`
}

// DeepDiveItem is one timestamped quote inside a domain deep dive.
type DeepDiveItem struct {
	Evidence  string    `json:"evidence"`
	Timestamp time.Time `json:"timestamp"`
}

// DomainDeepDive is the detailed per-skill view of a single domain.
type DomainDeepDive struct {
	Domain string                    `json:"domain"`
	Skills map[string][]DeepDiveItem `json:"skills"`
}

// Summary carries the headline statistics of a full candidate report.
type Summary struct {
	TotalSkillEvidence int      `json:"total_skill_evidence"`
	TotalTraitEvidence int      `json:"total_trait_evidence"`
	StrongDomains      []string `json:"strong_domains"`
	SkillsDemonstrated int      `json:"skills_demonstrated"`
	TraitsIdentified   int      `json:"traits_identified"`
}

// CandidateReport is the complete assessment for one session.
type CandidateReport struct {
	SessionID      string                  `json:"session_id"`
	Summary        Summary                 `json:"summary"`
	SkillsByDomain map[string][]SkillEntry `json:"skills_by_domain"`
	Traits         []TraitSummary          `json:"traits"`
}

// Aggregator computes reports from a graph driver.
type Aggregator struct {
	driver graph.Driver
}

// NewAggregator creates an Aggregator reading from the given driver.
func NewAggregator(driver graph.Driver) *Aggregator {
	return &Aggregator{driver: driver}
}

// SkillsReport returns the candidate's skills grouped by domain. A domain
// is strong when the evidence counts of its skills sum to at least
// StrongDomainThreshold.
func (a *Aggregator) SkillsReport(ctx context.Context, sessionID string) (*SkillsReport, error) {
	skills, err := a.driver.SkillEvidence(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetching skill evidence: %w", err)
	}

	byDomain, strong, total := groupSkills(skills)

	return &SkillsReport{
		SessionID:      sessionID,
		SkillsByDomain: byDomain,
		StrongDomains:  strong,
		TotalEvidence:  total,
	}, nil
}

// TraitsReport returns the candidate's traits, each with one overall
// intensity resolved across its evidence.
func (a *Aggregator) TraitsReport(ctx context.Context, sessionID string) (*TraitsReport, error) {
	traits, err := a.driver.TraitEvidence(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetching trait evidence: %w", err)
	}

	summaries, total := summarizeTraits(traits)

	return &TraitsReport{
		SessionID:     sessionID,
		Traits:        summaries,
		TotalEvidence: total,
	}, nil
}

// DomainDeepDive returns per-skill evidence lists restricted to one domain.
func (a *Aggregator) DomainDeepDive(ctx context.Context, sessionID, domain string) (*DomainDeepDive, error) {
	items, err := a.driver.DomainEvidence(ctx, sessionID, domain)
	if err != nil {
		return nil, fmt.Errorf("fetching domain evidence: %w", err)
	}

	dive := &DomainDeepDive{
		Domain: domain,
		Skills: make(map[string][]DeepDiveItem),
	}
	for _, item := range items {
		dive.Skills[item.Skill] = append(dive.Skills[item.Skill], DeepDiveItem{
			Evidence:  item.Evidence,
			Timestamp: item.Timestamp,
		})
	}

	return dive, nil
}

// CandidateReport combines skills and traits into the full assessment.
func (a *Aggregator) CandidateReport(ctx context.Context, sessionID string) (*CandidateReport, error) {
	skills, err := a.driver.SkillEvidence(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetching skill evidence: %w", err)
	}
	traits, err := a.driver.TraitEvidence(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("fetching trait evidence: %w", err)
	}

	byDomain, strong, skillTotal := groupSkills(skills)
	summaries, traitTotal := summarizeTraits(traits)

	return &CandidateReport{
		SessionID:      sessionID,
		SkillsByDomain: byDomain,
		Traits:         summaries,
		Summary: Summary{
			TotalSkillEvidence: skillTotal,
			TotalTraitEvidence: traitTotal,
			StrongDomains:      strong,
			SkillsDemonstrated: len(skills),
			TraitsIdentified:   len(summaries),
		},
	}, nil
}

func groupSkills(skills []graph.SkillEvidence) (map[string][]SkillEntry, []string, int) {
	byDomain := make(map[string][]SkillEntry)
	total := 0

	for _, item := range skills {
		domain := item.Domain
		if domain == "" {
			domain = "Uncategorized"
		}
		byDomain[domain] = append(byDomain[domain], SkillEntry{
			Skill:          item.Skill,
			EvidenceCount:  len(item.Evidence),
			EvidencePoints: item.Evidence,
		})
		total += len(item.Evidence)
	}

	var strong []string
	for domain, entries := range byDomain {
		count := 0
		for _, e := range entries {
			count += e.EvidenceCount
		}
		if count >= StrongDomainThreshold {
			strong = append(strong, domain)
		}
	}
	sort.Strings(strong)

	return byDomain, strong, total
}

func summarizeTraits(traits []graph.TraitEvidence) ([]TraitSummary, int) {
	summaries := make([]TraitSummary, 0, len(traits))
	total := 0

	for _, item := range traits {
		points := make([]string, len(item.Evidence))
		for i, q := range item.Evidence {
			points[i] = q.Text
		}
		summaries = append(summaries, TraitSummary{
			Trait:          item.Trait,
			Intensity:      resolveIntensity(item.Evidence),
			EvidenceCount:  len(item.Evidence),
			EvidencePoints: points,
		})
		total += len(item.Evidence)
	}

	return summaries, total
}

// resolveIntensity reduces per-quote intensities to one overall grade with
// the precedence High > Low > Moderate: any High evidence wins outright,
// otherwise any Low evidence wins, otherwise Moderate.
func resolveIntensity(quotes []graph.TraitQuote) ontology.Intensity {
	hasLow := false
	for _, q := range quotes {
		switch q.Intensity {
		case ontology.IntensityHigh:
			return ontology.IntensityHigh
		case ontology.IntensityLow:
			hasLow = true
		}
	}
	if hasLow {
		return ontology.IntensityLow
	}
	return ontology.IntensityModerate
}
