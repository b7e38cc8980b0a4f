package eventstream

import (
	"time"

	"github.com/quietgrove/dossier/pkg/ontology"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeObservationPersisted is emitted after an extracted
	// observation is written to the knowledge graph.
	EventTypeObservationPersisted = "dossier.observation.persisted"

	// EventTypeTaskDeadLettered is emitted when an extraction task
	// exhausts its retries and is parked.
	EventTypeTaskDeadLettered = "dossier.task.deadlettered"
)

// ObservationPersistedEvent is a transport-neutral event payload for a
// persisted observation.
type ObservationPersistedEvent struct {
	SchemaVersion int             `json:"schema_version"`
	EventType     string          `json:"event_type"`
	EventID       string          `json:"event_id"`
	EmittedAt     time.Time       `json:"emitted_at"`
	SessionID     string          `json:"session_id"`
	EvidenceID    string          `json:"evidence_id"`
	Observation   ObservationMeta `json:"observation"`
}

// ObservationMeta mirrors the persisted observation for consumers that do
// not share the graph types.
type ObservationMeta struct {
	Skill          string             `json:"skill,omitempty"`
	SkillDomain    string             `json:"skill_domain,omitempty"`
	Trait          string             `json:"trait,omitempty"`
	TraitIntensity ontology.Intensity `json:"trait_intensity,omitempty"`
	Evidence       string             `json:"evidence"`
}

// TaskDeadLetteredEvent is emitted for an extraction task that failed all
// its attempts.
type TaskDeadLetteredEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	TaskID        string    `json:"task_id"`
	SessionID     string    `json:"session_id"`
	Attempts      int       `json:"attempts"`
	Reason        string    `json:"reason"`
}
