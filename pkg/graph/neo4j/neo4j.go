// Package neo4j provides a Neo4j-backed graph driver. This backend maps the
// data model onto native labeled nodes and typed relationships:
//
//	(Candidate)-[:DEMONSTRATED]->(Evidence)-[:INDICATES]->(Skill)
//	(Evidence)-[:INDICATES {intensity}]->(Trait)
//
// Cypher MERGE gives the atomic merge-or-create semantics concurrent
// workers rely on for Candidate, Skill and Trait nodes.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/quietgrove/dossier/pkg/graph"
	"github.com/quietgrove/dossier/pkg/ontology"
)

// Driver implements graph.Driver against a Neo4j instance.
type Driver struct {
	driver neo4j.DriverWithContext
}

// NewDriver connects to Neo4j at uri (e.g. "bolt://localhost:7687") and
// verifies connectivity.
func NewDriver(ctx context.Context, uri, user, password string) (*Driver, error) {
	drv, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}

	if err := drv.VerifyConnectivity(ctx); err != nil {
		_ = drv.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}

	return &Driver{driver: drv}, nil
}

func (d *Driver) Persist(ctx context.Context, sessionID string, obs graph.Observation) (string, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	evidenceID := uuid.NewString()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// Candidate merge-on-create; created_at is set exactly once.
		if _, err := tx.Run(ctx, `
			MERGE (c:Candidate {session_id: $session_id})
			ON CREATE SET c.created_at = datetime()`,
			map[string]any{"session_id": sessionID}); err != nil {
			return nil, fmt.Errorf("merging candidate: %w", err)
		}

		// Evidence is always a fresh node.
		if _, err := tx.Run(ctx, `
			MATCH (c:Candidate {session_id: $session_id})
			CREATE (e:Evidence {id: $id, text: $text, timestamp: datetime()})
			CREATE (c)-[:DEMONSTRATED]->(e)`,
			map[string]any{
				"session_id": sessionID,
				"id":         evidenceID,
				"text":       obs.Evidence,
			}); err != nil {
			return nil, fmt.Errorf("creating evidence: %w", err)
		}

		if obs.Skill != "" {
			if _, err := tx.Run(ctx, `
				MATCH (e:Evidence {id: $id})
				MERGE (s:Skill {name: $skill})
				ON CREATE SET s.domain = $domain
				CREATE (e)-[:INDICATES]->(s)`,
				map[string]any{
					"id":     evidenceID,
					"skill":  obs.Skill,
					"domain": obs.SkillDomain,
				}); err != nil {
				return nil, fmt.Errorf("merging skill: %w", err)
			}
		}

		if obs.Trait != "" {
			if _, err := tx.Run(ctx, `
				MATCH (e:Evidence {id: $id})
				MERGE (t:Trait {name: $trait})
				CREATE (e)-[:INDICATES {intensity: $intensity}]->(t)`,
				map[string]any{
					"id":        evidenceID,
					"trait":     obs.Trait,
					"intensity": string(obs.Intensity()),
				}); err != nil {
				return nil, fmt.Errorf("merging trait: %w", err)
			}
		}

		return nil, nil
	})
	if err != nil {
		return "", err
	}

	return evidenceID, nil
}

func (d *Driver) SkillEvidence(ctx context.Context, sessionID string) ([]graph.SkillEvidence, error) {
	records, err := d.readRows(ctx, `
		MATCH (c:Candidate {session_id: $session_id})
		MATCH (c)-[:DEMONSTRATED]->(e:Evidence)-[:INDICATES]->(s:Skill)
		RETURN s.name AS skill, s.domain AS domain, e.text AS text
		ORDER BY s.domain, s.name, e.timestamp, e.id`,
		map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("querying skill evidence: %w", err)
	}

	var out []graph.SkillEvidence
	for _, record := range records {
		skill := stringValue(record, "skill")
		quote := stringValue(record, "text")
		if n := len(out); n > 0 && out[n-1].Skill == skill {
			out[n-1].Evidence = append(out[n-1].Evidence, quote)
			continue
		}
		out = append(out, graph.SkillEvidence{
			Skill:    skill,
			Domain:   stringValue(record, "domain"),
			Evidence: []string{quote},
		})
	}

	return out, nil
}

func (d *Driver) TraitEvidence(ctx context.Context, sessionID string) ([]graph.TraitEvidence, error) {
	records, err := d.readRows(ctx, `
		MATCH (c:Candidate {session_id: $session_id})
		MATCH (c)-[:DEMONSTRATED]->(e:Evidence)-[r:INDICATES]->(t:Trait)
		RETURN t.name AS trait, e.text AS text, r.intensity AS intensity
		ORDER BY t.name, e.timestamp, e.id`,
		map[string]any{"session_id": sessionID})
	if err != nil {
		return nil, fmt.Errorf("querying trait evidence: %w", err)
	}

	var out []graph.TraitEvidence
	for _, record := range records {
		trait := stringValue(record, "trait")
		tq := graph.TraitQuote{
			Text:      stringValue(record, "text"),
			Intensity: ontology.Intensity(stringValue(record, "intensity")),
		}
		if n := len(out); n > 0 && out[n-1].Trait == trait {
			out[n-1].Evidence = append(out[n-1].Evidence, tq)
			continue
		}
		out = append(out, graph.TraitEvidence{Trait: trait, Evidence: []graph.TraitQuote{tq}})
	}

	return out, nil
}

func (d *Driver) DomainEvidence(ctx context.Context, sessionID, domain string) ([]graph.DomainEvidence, error) {
	records, err := d.readRows(ctx, `
		MATCH (c:Candidate {session_id: $session_id})
		MATCH (c)-[:DEMONSTRATED]->(e:Evidence)-[:INDICATES]->(s:Skill {domain: $domain})
		RETURN s.name AS skill, e.text AS evidence, e.timestamp AS timestamp
		ORDER BY s.name, e.timestamp, e.id`,
		map[string]any{"session_id": sessionID, "domain": domain})
	if err != nil {
		return nil, fmt.Errorf("querying domain evidence: %w", err)
	}

	var out []graph.DomainEvidence
	for _, record := range records {
		item := graph.DomainEvidence{
			Skill:    stringValue(record, "skill"),
			Evidence: stringValue(record, "evidence"),
		}
		if v, ok := record.Get("timestamp"); ok {
			if ts, ok := v.(time.Time); ok {
				item.Timestamp = ts
			}
		}
		out = append(out, item)
	}

	return out, nil
}

func (d *Driver) Close() error {
	return d.driver.Close(context.Background())
}

// readRows runs a read query and collects all records inside the managed
// transaction, since records are invalid once the transaction ends.
func (d *Driver) readRows(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records, _ := out.([]*neo4j.Record)
	return records, nil
}

func stringValue(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
