// Package pipeline is the cold path: it takes a queued extraction task,
// asks the oracle for observations, validates them against the ontology,
// persists the survivors to the knowledge graph and emits lifecycle
// events. It plugs into dispatch as the task handler.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/quietgrove/dossier/pkg/dispatch"
	"github.com/quietgrove/dossier/pkg/eventstream"
	"github.com/quietgrove/dossier/pkg/extract"
	"github.com/quietgrove/dossier/pkg/graph"
)

// Processor implements the extraction pipeline for one task at a time.
type Processor struct {
	extractor *extract.Extractor
	graph     graph.Driver
	events    eventstream.Publisher
	logger    *slog.Logger
}

// NewProcessor wires the pipeline stages together.
func NewProcessor(extractor *extract.Extractor, driver graph.Driver, events eventstream.Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		extractor: extractor,
		graph:     driver,
		events:    events,
		logger:    logger,
	}
}

// Process handles one task: extract, validate, persist, publish. Oracle
// connection failures and graph write failures return an error so the
// dispatcher retries; a malformed oracle response or a fully-rejected
// batch succeeds with nothing persisted.
func (p *Processor) Process(ctx context.Context, task dispatch.Task) error {
	log := p.logger.With("task", task.ID, "session", task.SessionID)

	raw, err := p.extractor.Extract(ctx, task.Text)
	if err != nil {
		return fmt.Errorf("extracting observations: %w", err)
	}

	persisted := 0
	for _, obs := range raw {
		validated, ok := extract.Validate(obs, task.Text)
		if !ok {
			log.Debug("observation rejected by validation",
				"skill", obs.Skill,
				"trait", obs.Trait,
			)
			continue
		}

		record := graph.Observation{
			Skill:          validated.Skill,
			SkillDomain:    validated.SkillDomain,
			Trait:          validated.Trait,
			TraitIntensity: validated.TraitIntensity,
			Evidence:       validated.Evidence,
		}

		evidenceID, err := p.graph.Persist(ctx, task.SessionID, record)
		if err != nil {
			return fmt.Errorf("persisting observation: %w", err)
		}
		persisted++

		p.publishObservation(ctx, log, task, record, evidenceID)
	}

	log.Info("task processed", "extracted", len(raw), "persisted", persisted)

	return nil
}

// DeadLetter returns the dispatch hook that reports exhausted tasks on the
// event stream.
func (p *Processor) DeadLetter() dispatch.DeadLetterFunc {
	return func(ctx context.Context, task dispatch.Task, cause error) {
		event := &eventstream.TaskDeadLetteredEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeTaskDeadLettered,
			EventID:       uuid.NewString(),
			EmittedAt:     time.Now().UTC(),
			TaskID:        task.ID,
			SessionID:     task.SessionID,
			Attempts:      task.Attempt + 1,
			Reason:        cause.Error(),
		}
		if err := p.events.PublishDeadLetter(ctx, event); err != nil {
			p.logger.Warn("publishing dead-letter event failed", "task", task.ID, "error", err)
		}
	}
}

// publishObservation emits the persisted-observation event. Publishing is
// best effort: the observation is already durable, so a stream outage must
// not fail the task and trigger a duplicate write.
func (p *Processor) publishObservation(ctx context.Context, log *slog.Logger, task dispatch.Task, obs graph.Observation, evidenceID string) {
	event := &eventstream.ObservationPersistedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeObservationPersisted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		SessionID:     task.SessionID,
		EvidenceID:    evidenceID,
		Observation: eventstream.ObservationMeta{
			Skill:          obs.Skill,
			SkillDomain:    obs.SkillDomain,
			Trait:          obs.Trait,
			TraitIntensity: obs.TraitIntensity,
			Evidence:       obs.Evidence,
		},
	}
	if err := p.events.PublishObservation(ctx, event); err != nil {
		log.Warn("publishing observation event failed", "evidence", evidenceID, "error", err)
	}
}
