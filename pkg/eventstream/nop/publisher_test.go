package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/eventstream"
	"github.com/quietgrove/dossier/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilEvent for nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishObservation(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
		Expect(p.PublishDeadLetter(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishObservation(context.Background(), &eventstream.ObservationPersistedEvent{})).To(Succeed())
		Expect(p.PublishDeadLetter(context.Background(), &eventstream.TaskDeadLetteredEvent{})).To(Succeed())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
