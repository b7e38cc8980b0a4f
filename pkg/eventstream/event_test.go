package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/eventstream"
	"github.com/quietgrove/dossier/pkg/ontology"
)

var _ = Describe("Event", func() {
	It("marshals ObservationPersistedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.ObservationPersistedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeObservationPersisted,
			EventID:       "evt_123",
			EmittedAt:     now,
			SessionID:     "session-1",
			EvidenceID:    "ev_456",
			Observation: eventstream.ObservationMeta{
				Skill:          "Problem Solving",
				SkillDomain:    "Thinking Critically",
				Trait:          "Openness",
				TraitIntensity: ontology.IntensityHigh,
				Evidence:       "I prototyped three approaches before committing",
			},
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("session_id"))
		Expect(got).To(HaveKey("evidence_id"))
		Expect(got).To(HaveKey("observation"))
	})

	It("omits empty skill and trait fields from observation payloads", func() {
		meta := eventstream.ObservationMeta{Evidence: "quote"}

		payload, err := json.Marshal(meta)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).NotTo(HaveKey("skill"))
		Expect(got).NotTo(HaveKey("trait"))
		Expect(got).To(HaveKey("evidence"))
	})

	It("marshals TaskDeadLetteredEvent with expected top-level keys", func() {
		event := eventstream.TaskDeadLetteredEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeTaskDeadLettered,
			EventID:       "evt_789",
			EmittedAt:     time.Now().UTC(),
			TaskID:        "task_1",
			SessionID:     "session-1",
			Attempts:      3,
			Reason:        "oracle unreachable",
		}

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())
		Expect(got).To(HaveKey("task_id"))
		Expect(got).To(HaveKey("attempts"))
		Expect(got).To(HaveKey("reason"))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeObservationPersisted).To(Equal("dossier.observation.persisted"))
		Expect(eventstream.EventTypeTaskDeadLettered).To(Equal("dossier.task.deadlettered"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).NotTo(BeNil())
		Expect(eventstream.ErrNilEvent).To(MatchError("nil event"))
	})
})
