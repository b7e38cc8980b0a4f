package dispatch_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/dispatch"
)

var _ = Describe("Task", func() {
	It("assigns a unique id and zero attempts", func() {
		a := dispatch.NewTask("session-1", "some candidate text")
		b := dispatch.NewTask("session-1", "some candidate text")

		Expect(a.ID).NotTo(BeEmpty())
		Expect(a.ID).NotTo(Equal(b.ID))
		Expect(a.Attempt).To(BeZero())
		Expect(a.EnqueuedAt).NotTo(BeZero())
	})

	Describe("Fingerprint", func() {
		It("is stable across tasks for the same session and text", func() {
			a := dispatch.NewTask("session-1", "some candidate text")
			b := dispatch.NewTask("session-1", "some candidate text")

			Expect(a.Fingerprint()).To(Equal(b.Fingerprint()))
		})

		It("differs across sessions and across texts", func() {
			base := dispatch.NewTask("session-1", "some candidate text")
			otherSession := dispatch.NewTask("session-2", "some candidate text")
			otherText := dispatch.NewTask("session-1", "different text")

			Expect(base.Fingerprint()).NotTo(Equal(otherSession.Fingerprint()))
			Expect(base.Fingerprint()).NotTo(Equal(otherText.Fingerprint()))
		})

		It("survives a retry attempt bump", func() {
			task := dispatch.NewTask("session-1", "some candidate text")
			retry := task
			retry.Attempt++

			Expect(retry.Fingerprint()).To(Equal(task.Fingerprint()))
		})
	})
})
