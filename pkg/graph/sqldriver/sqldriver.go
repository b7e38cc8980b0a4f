// Package sqldriver provides graph storage operations over database/sql.
// It is database-agnostic and is embedded by the sqlite and postgres
// drivers, which own connection setup and dialect selection.
package sqldriver

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quietgrove/dossier/pkg/graph"
	"github.com/quietgrove/dossier/pkg/ontology"
)

// Dialect selects placeholder syntax for the underlying database.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// SQLDriver implements graph.Driver on a relational schema: candidates,
// evidence, skills and traits tables with link tables standing in for the
// DEMONSTRATED and INDICATES relationships. Merge-by-name is enforced with
// primary keys plus ON CONFLICT DO NOTHING, which both dialects resolve
// atomically under concurrent writers.
type SQLDriver struct {
	DB      *sql.DB
	Dialect Dialect
}

// Schema is the DDL shared by both dialects.
const Schema = `
CREATE TABLE IF NOT EXISTS candidates (
	session_id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS skills (
	name   TEXT PRIMARY KEY,
	domain TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS traits (
	name TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS evidence (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES candidates(session_id),
	quote      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence_skills (
	evidence_id TEXT NOT NULL REFERENCES evidence(id),
	skill       TEXT NOT NULL REFERENCES skills(name),
	PRIMARY KEY (evidence_id, skill)
);

CREATE TABLE IF NOT EXISTS evidence_traits (
	evidence_id TEXT NOT NULL REFERENCES evidence(id),
	trait       TEXT NOT NULL REFERENCES traits(name),
	intensity   TEXT NOT NULL,
	PRIMARY KEY (evidence_id, trait)
);

CREATE INDEX IF NOT EXISTS idx_evidence_session ON evidence(session_id);
`

// Migrate creates the schema. Append-only; safe to run on every startup.
func (d *SQLDriver) Migrate(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// bind rewrites ? placeholders to $N for postgres.
func (d *SQLDriver) bind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d *SQLDriver) Persist(ctx context.Context, sessionID string, obs graph.Observation) (string, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning persist: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	// Candidate merge-on-create: created_at is written once and only once.
	_, err = tx.ExecContext(ctx,
		d.bind(`INSERT INTO candidates (session_id, created_at) VALUES (?, ?) ON CONFLICT (session_id) DO NOTHING`),
		sessionID, now)
	if err != nil {
		return "", fmt.Errorf("merging candidate: %w", err)
	}

	// Evidence is always a fresh row.
	evidenceID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		d.bind(`INSERT INTO evidence (id, session_id, quote, created_at) VALUES (?, ?, ?, ?)`),
		evidenceID, sessionID, obs.Evidence, now)
	if err != nil {
		return "", fmt.Errorf("creating evidence: %w", err)
	}

	if obs.Skill != "" {
		// Merge-by-name; the domain sticks from the first creation.
		_, err = tx.ExecContext(ctx,
			d.bind(`INSERT INTO skills (name, domain) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`),
			obs.Skill, obs.SkillDomain)
		if err != nil {
			return "", fmt.Errorf("merging skill: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			d.bind(`INSERT INTO evidence_skills (evidence_id, skill) VALUES (?, ?)`),
			evidenceID, obs.Skill)
		if err != nil {
			return "", fmt.Errorf("linking skill: %w", err)
		}
	}

	if obs.Trait != "" {
		_, err = tx.ExecContext(ctx,
			d.bind(`INSERT INTO traits (name) VALUES (?) ON CONFLICT (name) DO NOTHING`),
			obs.Trait)
		if err != nil {
			return "", fmt.Errorf("merging trait: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			d.bind(`INSERT INTO evidence_traits (evidence_id, trait, intensity) VALUES (?, ?, ?)`),
			evidenceID, obs.Trait, string(obs.Intensity()))
		if err != nil {
			return "", fmt.Errorf("linking trait: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing persist: %w", err)
	}

	return evidenceID, nil
}

func (d *SQLDriver) SkillEvidence(ctx context.Context, sessionID string) ([]graph.SkillEvidence, error) {
	rows, err := d.DB.QueryContext(ctx, d.bind(`
		SELECT s.name, s.domain, e.quote
		FROM evidence e
		JOIN evidence_skills es ON es.evidence_id = e.id
		JOIN skills s ON s.name = es.skill
		WHERE e.session_id = ?
		ORDER BY s.domain, s.name, e.created_at, e.id`),
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying skill evidence: %w", err)
	}
	defer rows.Close()

	var out []graph.SkillEvidence
	for rows.Next() {
		var skill, domain, quote string
		if err := rows.Scan(&skill, &domain, &quote); err != nil {
			return nil, fmt.Errorf("scanning skill evidence: %w", err)
		}
		if n := len(out); n > 0 && out[n-1].Skill == skill {
			out[n-1].Evidence = append(out[n-1].Evidence, quote)
			continue
		}
		out = append(out, graph.SkillEvidence{
			Skill:    skill,
			Domain:   domain,
			Evidence: []string{quote},
		})
	}

	return out, rows.Err()
}

func (d *SQLDriver) TraitEvidence(ctx context.Context, sessionID string) ([]graph.TraitEvidence, error) {
	rows, err := d.DB.QueryContext(ctx, d.bind(`
		SELECT t.name, e.quote, et.intensity
		FROM evidence e
		JOIN evidence_traits et ON et.evidence_id = e.id
		JOIN traits t ON t.name = et.trait
		WHERE e.session_id = ?
		ORDER BY t.name, e.created_at, e.id`),
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying trait evidence: %w", err)
	}
	defer rows.Close()

	var out []graph.TraitEvidence
	for rows.Next() {
		var trait, quote, intensity string
		if err := rows.Scan(&trait, &quote, &intensity); err != nil {
			return nil, fmt.Errorf("scanning trait evidence: %w", err)
		}
		tq := graph.TraitQuote{Text: quote, Intensity: ontology.Intensity(intensity)}
		if n := len(out); n > 0 && out[n-1].Trait == trait {
			out[n-1].Evidence = append(out[n-1].Evidence, tq)
			continue
		}
		out = append(out, graph.TraitEvidence{Trait: trait, Evidence: []graph.TraitQuote{tq}})
	}

	return out, rows.Err()
}

func (d *SQLDriver) DomainEvidence(ctx context.Context, sessionID, domain string) ([]graph.DomainEvidence, error) {
	rows, err := d.DB.QueryContext(ctx, d.bind(`
		SELECT s.name, e.quote, e.created_at
		FROM evidence e
		JOIN evidence_skills es ON es.evidence_id = e.id
		JOIN skills s ON s.name = es.skill
		WHERE e.session_id = ? AND s.domain = ?
		ORDER BY s.name, e.created_at, e.id`),
		sessionID, domain)
	if err != nil {
		return nil, fmt.Errorf("querying domain evidence: %w", err)
	}
	defer rows.Close()

	var out []graph.DomainEvidence
	for rows.Next() {
		var item graph.DomainEvidence
		if err := rows.Scan(&item.Skill, &item.Evidence, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning domain evidence: %w", err)
		}
		out = append(out, item)
	}

	return out, rows.Err()
}

func (d *SQLDriver) Close() error {
	return d.DB.Close()
}
