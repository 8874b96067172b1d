package broadcast_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/eventstream/broadcast"
)

var _ = Describe("Broadcaster", func() {
	var (
		b   *broadcast.Broadcaster
		ctx context.Context
	)

	BeforeEach(func() {
		b = broadcast.New(nil)
		ctx = context.Background()
	})

	It("delivers events to every subscriber", func() {
		ch1, cancel1 := b.Subscribe(0)
		defer cancel1()
		ch2, cancel2 := b.Subscribe(0)
		defer cancel2()

		ev := eventstream.NewResolvedEvent("default", "<-CMD:ls")
		Expect(b.PublishResolved(ctx, ev)).To(Succeed())

		Expect(ch1).To(Receive(Equal(ev)))
		Expect(ch2).To(Receive(Equal(ev)))
	})

	It("drops events for full subscribers instead of blocking", func() {
		ch, cancel := b.Subscribe(1)
		defer cancel()

		first := eventstream.NewResolvedEvent("default", "<-CMD:a")
		Expect(b.PublishResolved(ctx, first)).To(Succeed())
		Expect(b.PublishResolved(ctx, eventstream.NewResolvedEvent("default", "<-CMD:b"))).To(Succeed())

		Expect(ch).To(Receive(Equal(first)))
		Expect(ch).NotTo(Receive())
	})

	It("closes the channel on cancel", func() {
		ch, cancel := b.Subscribe(0)
		Expect(b.Subscribers()).To(Equal(1))

		cancel()
		cancel()
		Expect(b.Subscribers()).To(Equal(0))
		Eventually(ch).Should(BeClosed())
	})

	It("rejects nil events", func() {
		Expect(b.PublishResolved(ctx, nil)).To(MatchError(eventstream.ErrNilResolvedEvent))
	})

	It("closes subscribers and refuses publishes after Close", func() {
		ch, cancel := b.Subscribe(0)
		defer cancel()

		Expect(b.Close()).To(Succeed())
		Expect(b.Close()).To(Succeed())
		Eventually(ch).Should(BeClosed())

		err := b.PublishResolved(ctx, eventstream.NewResolvedEvent("default", "<-CMD:ls"))
		Expect(err).To(MatchError(eventstream.ErrPublisherClosed))

		late, _ := b.Subscribe(0)
		Eventually(late).Should(BeClosed())
	})
})
