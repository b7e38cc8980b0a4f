package inmemory_test

import (
	"context"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quietgrove/dossier/pkg/recency"
	"github.com/quietgrove/dossier/pkg/recency/inmemory"
)

var _ = Describe("Store", func() {
	var (
		store *inmemory.Store
		ctx   context.Context
	)

	BeforeEach(func() {
		store = inmemory.NewStore()
		ctx = context.Background()
	})

	It("returns turns in chronological order", func() {
		Expect(store.Append(ctx, "s1", recency.RoleUser, "first")).To(Succeed())
		Expect(store.Append(ctx, "s1", recency.RoleAssistant, "second")).To(Succeed())
		Expect(store.Append(ctx, "s1", recency.RoleUser, "third")).To(Succeed())

		turns, err := store.Read(ctx, "s1", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(3))
		Expect(turns[0].Content).To(Equal("first"))
		Expect(turns[1].Content).To(Equal("second"))
		Expect(turns[2].Content).To(Equal("third"))
	})

	It("never holds more than the cap, evicting oldest first", func() {
		for i := 0; i < recency.MaxTurns+5; i++ {
			Expect(store.Append(ctx, "s1", recency.RoleUser, fmt.Sprintf("turn %d", i))).To(Succeed())
		}

		turns, err := store.Read(ctx, "s1", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(recency.MaxTurns))
		Expect(turns[0].Content).To(Equal("turn 5"), "oldest five turns evicted")
		Expect(turns[len(turns)-1].Content).To(Equal(fmt.Sprintf("turn %d", recency.MaxTurns+4)))
	})

	It("honors the read limit against the newest turns", func() {
		for i := 0; i < 5; i++ {
			Expect(store.Append(ctx, "s1", recency.RoleUser, fmt.Sprintf("turn %d", i))).To(Succeed())
		}

		turns, err := store.Read(ctx, "s1", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(2))
		Expect(turns[0].Content).To(Equal("turn 3"))
		Expect(turns[1].Content).To(Equal("turn 4"))
	})

	It("reads a missing session as empty", func() {
		turns, err := store.Read(ctx, "nope", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(BeEmpty())

		info, err := store.Info(ctx, "nope")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Exists).To(BeFalse())
		Expect(info.Count).To(BeZero())
	})

	It("reports count and remaining TTL", func() {
		Expect(store.Append(ctx, "s1", recency.RoleUser, "hello")).To(Succeed())

		info, err := store.Info(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Exists).To(BeTrue())
		Expect(info.Count).To(Equal(1))
		Expect(info.TTL).To(BeNumerically(">", 0))
		Expect(info.TTL).To(BeNumerically("<=", recency.TTL))
	})

	It("resets expiry on append but not on read", func() {
		now := time.Now()
		store.SetNowFunc(func() time.Time { return now })

		Expect(store.Append(ctx, "s1", recency.RoleUser, "hello")).To(Succeed())

		// Advance to just short of expiry; a read must not refresh it.
		now = now.Add(recency.TTL - time.Minute)
		_, err := store.Read(ctx, "s1", 0)
		Expect(err).NotTo(HaveOccurred())

		// An append resets the clock.
		Expect(store.Append(ctx, "s1", recency.RoleUser, "again")).To(Succeed())
		now = now.Add(recency.TTL - time.Minute)

		info, err := store.Info(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Exists).To(BeTrue(), "append refreshed the expiry")

		// Past the refreshed expiry the session is gone.
		now = now.Add(2 * time.Minute)
		info, err = store.Info(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Exists).To(BeFalse())
	})

	It("clears a session and reports whether it existed", func() {
		Expect(store.Append(ctx, "s1", recency.RoleUser, "hello")).To(Succeed())

		existed, err := store.Clear(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(existed).To(BeTrue())

		existed, err = store.Clear(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(existed).To(BeFalse())

		info, err := store.Info(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Exists).To(BeFalse())
	})

	It("keeps sessions isolated", func() {
		Expect(store.Append(ctx, "a", recency.RoleUser, "for a")).To(Succeed())
		Expect(store.Append(ctx, "b", recency.RoleUser, "for b")).To(Succeed())

		turns, err := store.Read(ctx, "a", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(turns).To(HaveLen(1))
		Expect(turns[0].Content).To(Equal("for a"))
	})
})
