package viewsync_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/viewsync"
)

var _ = Describe("DetailView", func() {
	var (
		src    *fakeSource
		ctx    context.Context
		cancel context.CancelFunc
	)

	msg := func(id int64, text string, at time.Duration) model.Message {
		return model.Message{ID: id, LeadID: 1, Role: model.MessageRoleAgent, Text: text, CreatedAt: base.Add(at)}
	}

	texts := func(v *viewsync.DetailView) []string {
		_, msgs, _ := v.Snapshot()
		out := make([]string, len(msgs))
		for i, m := range msgs {
			out[i] = m.Text
		}
		return out
	}

	BeforeEach(func() {
		src = newFakeSource()
		src.leads = []model.Lead{lead(1, "Acme", 1, time.Minute), lead(2, "Other", 1, time.Minute)}
		src.messages[1] = []model.Message{msg(10, "hello", 0)}
		ctx, cancel = context.WithCancel(context.Background())
	})

	AfterEach(func() {
		cancel()
		src.close()
	})

	Context("with a running view", func() {
		var (
			view *viewsync.DetailView
			done chan error
		)

		BeforeEach(func() {
			view = viewsync.NewDetailView(src, 1, fastOptions)
			done = make(chan error, 1)
			go func() { done <- view.Run(ctx) }()
			Eventually(view.Ready()).Should(BeClosed())
		})

		AfterEach(func() {
			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("seeds the lead and its messages", func() {
			got, msgs, ok := view.Snapshot()
			Expect(ok).To(BeTrue())
			Expect(got.CompanyName).To(Equal("Acme"))
			Expect(msgs).To(HaveLen(1))
		})

		It("appends new messages once", func() {
			src.publish(model.MessageCreated(msg(11, "how can I help", time.Second)))
			src.publish(model.MessageCreated(msg(11, "how can I help", time.Second)))
			src.publish(model.MessageCreated(msg(10, "hello", 0)))

			Eventually(func() []string { return texts(view) }).Should(Equal([]string{"hello", "how can I help"}))
			Consistently(func() []string { return texts(view) }, 50*time.Millisecond).Should(HaveLen(2))
		})

		It("orders messages by creation time", func() {
			src.publish(model.MessageCreated(msg(12, "later", 2*time.Second)))
			src.publish(model.MessageCreated(msg(11, "earlier", time.Second)))

			Eventually(func() []string { return texts(view) }).Should(Equal([]string{"hello", "earlier", "later"}))
		})

		It("applies updates to the viewed lead only", func() {
			src.publish(model.LeadChanged(model.ChangeUpdated, lead(2, "Other2", 2, time.Minute)))
			src.publish(model.LeadChanged(model.ChangeUpdated, lead(1, "Acme2", 2, time.Minute)))

			Eventually(func() string {
				got, _, _ := view.Snapshot()
				return got.CompanyName
			}).Should(Equal("Acme2"))
			Eventually(view.JustUpdated).Should(BeTrue())
		})

		It("clears the view when the lead is deleted", func() {
			src.publish(model.LeadChanged(model.ChangeDeleted, lead(1, "Acme", 2, time.Minute)))

			Eventually(func() bool {
				_, _, ok := view.Snapshot()
				return ok
			}).Should(BeFalse())
		})
	})

	It("stops with ErrNotFound for a missing lead", func() {
		view := viewsync.NewDetailView(src, 404, fastOptions)

		err := view.Run(ctx)
		Expect(err).To(MatchError(viewsync.ErrNotFound))
		Expect(src.subscribers()).To(BeZero())
		_, _, ok := view.Snapshot()
		Expect(ok).To(BeFalse())
	})
})
