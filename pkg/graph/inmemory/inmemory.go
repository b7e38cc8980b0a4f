// Package inmemory provides an in-memory graph.Driver used for tests and
// single-process development runs.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quietgrove/dossier/pkg/graph"
	"github.com/quietgrove/dossier/pkg/ontology"
)

type evidence struct {
	id        string
	text      string
	createdAt time.Time
	skill     string
	trait     string
	intensity ontology.Intensity
}

type candidate struct {
	createdAt time.Time
	evidence  []*evidence
}

// Driver implements graph.Driver backed by mutex-guarded maps.
type Driver struct {
	mu sync.RWMutex

	candidates map[string]*candidate

	// skills maps skill name to domain. The domain is set on first
	// creation and immutable after, matching merge-on-create semantics.
	skills map[string]string
	traits map[string]struct{}

	// now is swappable so tests can control evidence timestamps.
	now func() time.Time
}

// NewDriver creates an empty in-memory graph driver.
func NewDriver() *Driver {
	return &Driver{
		candidates: make(map[string]*candidate),
		skills:     make(map[string]string),
		traits:     make(map[string]struct{}),
		now:        time.Now,
	}
}

// SetNowFunc overrides the clock. Test hook only.
func (d *Driver) SetNowFunc(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

func (d *Driver) Persist(_ context.Context, sessionID string, obs graph.Observation) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cand, ok := d.candidates[sessionID]
	if !ok {
		cand = &candidate{createdAt: d.now()}
		d.candidates[sessionID] = cand
	}

	ev := &evidence{
		id:        uuid.NewString(),
		text:      obs.Evidence,
		createdAt: d.now(),
	}

	if obs.Skill != "" {
		if _, exists := d.skills[obs.Skill]; !exists {
			d.skills[obs.Skill] = obs.SkillDomain
		}
		ev.skill = obs.Skill
	}

	if obs.Trait != "" {
		d.traits[obs.Trait] = struct{}{}
		ev.trait = obs.Trait
		ev.intensity = obs.Intensity()
	}

	cand.evidence = append(cand.evidence, ev)

	return ev.id, nil
}

func (d *Driver) SkillEvidence(_ context.Context, sessionID string) ([]graph.SkillEvidence, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cand, ok := d.candidates[sessionID]
	if !ok {
		return nil, nil
	}

	bySkill := make(map[string][]string)
	for _, ev := range cand.evidence {
		if ev.skill != "" {
			bySkill[ev.skill] = append(bySkill[ev.skill], ev.text)
		}
	}

	out := make([]graph.SkillEvidence, 0, len(bySkill))
	for skill, quotes := range bySkill {
		out = append(out, graph.SkillEvidence{
			Skill:    skill,
			Domain:   d.skills[skill],
			Evidence: quotes,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		return out[i].Skill < out[j].Skill
	})

	return out, nil
}

func (d *Driver) TraitEvidence(_ context.Context, sessionID string) ([]graph.TraitEvidence, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cand, ok := d.candidates[sessionID]
	if !ok {
		return nil, nil
	}

	byTrait := make(map[string][]graph.TraitQuote)
	for _, ev := range cand.evidence {
		if ev.trait != "" {
			byTrait[ev.trait] = append(byTrait[ev.trait], graph.TraitQuote{
				Text:      ev.text,
				Intensity: ev.intensity,
			})
		}
	}

	out := make([]graph.TraitEvidence, 0, len(byTrait))
	for trait, quotes := range byTrait {
		out = append(out, graph.TraitEvidence{Trait: trait, Evidence: quotes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trait < out[j].Trait })

	return out, nil
}

func (d *Driver) DomainEvidence(_ context.Context, sessionID, domain string) ([]graph.DomainEvidence, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cand, ok := d.candidates[sessionID]
	if !ok {
		return nil, nil
	}

	var out []graph.DomainEvidence
	for _, ev := range cand.evidence {
		if ev.skill == "" || d.skills[ev.skill] != domain {
			continue
		}
		out = append(out, graph.DomainEvidence{
			Skill:     ev.skill,
			Evidence:  ev.text,
			Timestamp: ev.createdAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Skill != out[j].Skill {
			return out[i].Skill < out[j].Skill
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, nil
}

func (d *Driver) Close() error {
	return nil
}

// SkillDomain reports the domain recorded for a skill node. Test helper for
// asserting domain immutability.
func (d *Driver) SkillDomain(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	domain, ok := d.skills[name]
	return domain, ok
}

// SkillNodeCount reports how many distinct skill nodes exist across all
// candidates. Test helper for asserting merge idempotence.
func (d *Driver) SkillNodeCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.skills)
}
