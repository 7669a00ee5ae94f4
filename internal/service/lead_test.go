package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/reconcile"
	"basegraph.app/leads/internal/service"
	"basegraph.app/leads/internal/store"
)

func ptr[T any](v T) *T { return &v }

var _ = Describe("LeadService", func() {
	var (
		ctx       context.Context
		svc       service.LeadService
		leads     *mockLeadStore
		publisher *mockPublisher
		now       time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		leads = &mockLeadStore{}
		publisher = &mockPublisher{}
		now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
		svc = service.NewLeadService(leads, publisher, service.LeadServiceConfig{
			MaxAttempts:   3,
			RetryInterval: time.Millisecond,
			Now:           func() time.Time { return now },
		})
	})

	Describe("Create", func() {
		var captured *model.Lead

		BeforeEach(func() {
			captured = nil
			leads.createFn = func(_ context.Context, l *model.Lead) error {
				captured = l
				l.Version = 1
				l.CreatedAt = now
				return nil
			}
		})

		It("synthesizes the initial sentiment entry and presentation document", func() {
			lead, err := svc.Create(ctx, service.CreateLeadParams{
				CompanyName:    "Acme",
				ProjectName:    "Rocket",
				SentimentScore: ptr(72),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(lead.ID).NotTo(BeZero())
			Expect(lead.SentimentScore).To(Equal(72))
			Expect(lead.SentimentHistory).To(Equal([]model.SentimentEntry{
				{Timestamp: now, Score: 72, Reason: model.InitialSentimentNote},
			}))
			Expect(lead.Documents).To(Equal([]model.Document{{
				Type:     model.DocumentTypePresentation,
				Status:   model.DocumentStatusGenerating,
				Filename: "presentation.pdf",
			}}))
			Expect(captured).To(BeIdenticalTo(lead))
		})

		It("applies defaults for absent optional fields", func() {
			lead, err := svc.Create(ctx, service.CreateLeadParams{CompanyName: "Acme", ProjectName: "Rocket"})
			Expect(err).NotTo(HaveOccurred())
			Expect(lead.SentimentScore).To(Equal(50))
			Expect(lead.Value).To(Equal(model.LeadValueUnknown))
			Expect(lead.Term).To(Equal(model.LeadTermUnknown))
			Expect(lead.TeamSize).To(Equal(1))
			Expect(lead.Status).To(Equal(model.LeadStatusLive))
			Expect(lead.UserID).To(BeNil())
		})

		It("emits a created event carrying the stored lead", func() {
			lead, err := svc.Create(ctx, service.CreateLeadParams{CompanyName: "Acme", ProjectName: "Rocket"})
			Expect(err).NotTo(HaveOccurred())

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind()).To(Equal("lead.created"))
			Expect(events[0].LeadID).To(Equal(lead.ID))
			Expect(events[0].Lead.Version).To(Equal(int64(1)))
		})

		DescribeTable("rejects invalid input without touching the store",
			func(params service.CreateLeadParams, field string) {
				_, err := svc.Create(ctx, params)
				var verr *service.ValidationError
				Expect(errors.As(err, &verr)).To(BeTrue())
				Expect(verr.Field).To(Equal(field))
				Expect(captured).To(BeNil())
				Expect(publisher.Events()).To(BeEmpty())
			},
			Entry("missing company", service.CreateLeadParams{ProjectName: "Rocket"}, "company_name"),
			Entry("blank project", service.CreateLeadParams{CompanyName: "Acme", ProjectName: "   "}, "project_name"),
			Entry("score above range", service.CreateLeadParams{CompanyName: "Acme", ProjectName: "R", SentimentScore: ptr(101)}, "sentiment_score"),
			Entry("unknown value", service.CreateLeadParams{CompanyName: "Acme", ProjectName: "R", Value: ptr(model.LeadValue("huge"))}, "value"),
			Entry("negative team", service.CreateLeadParams{CompanyName: "Acme", ProjectName: "R", TeamSize: ptr(-1)}, "team_size"),
			Entry("team beyond integer range", service.CreateLeadParams{CompanyName: "Acme", ProjectName: "R", TeamSize: ptr(4294967297)}, "team_size"),
		)

		It("still succeeds when publishing fails", func() {
			publisher.publishFn = func(context.Context, model.ChangeEvent) error { return errors.New("redis down") }
			_, err := svc.Create(ctx, service.CreateLeadParams{CompanyName: "Acme", ProjectName: "Rocket"})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("maps a missing row to ErrLeadNotFound", func() {
			_, err := svc.Get(ctx, 99)
			Expect(err).To(MatchError(service.ErrLeadNotFound))
		})

		It("wraps store failures", func() {
			leads.getByIDFn = func(context.Context, int64) (*model.Lead, error) { return nil, errors.New("conn reset") }
			_, err := svc.Get(ctx, 1)
			Expect(err).To(MatchError(ContainSubstring("conn reset")))
			Expect(err).NotTo(MatchError(service.ErrLeadNotFound))
		})
	})

	Describe("Update", func() {
		var stored model.Lead

		BeforeEach(func() {
			stored = model.Lead{
				ID:             1,
				CompanyName:    "Acme",
				ProjectName:    "Rocket",
				SentimentScore: 50,
				SentimentHistory: []model.SentimentEntry{
					{Timestamp: now.Add(-time.Hour), Score: 50, Reason: model.InitialSentimentNote},
				},
				Status:  model.LeadStatusLive,
				Version: 2,
			}
			leads.getByIDFn = func(_ context.Context, id int64) (*model.Lead, error) {
				l := stored.Clone()
				return &l, nil
			}
			leads.updateFn = func(_ context.Context, id int64, c reconcile.Changes) (*model.Lead, error) {
				if c.ExpectedVersion != nil && *c.ExpectedVersion != stored.Version {
					return nil, store.ErrVersionConflict
				}
				stored = c.Apply(stored)
				stored.Version++
				l := stored.Clone()
				return &l, nil
			}
		})

		It("rejects an empty patch", func() {
			_, err := svc.Update(ctx, 1, reconcile.Patch{})
			Expect(err).To(MatchError(reconcile.ErrNoValidFields))
			Expect(leads.updateCalls).To(BeZero())
		})

		It("writes scalar-only patches without reading the lead", func() {
			lead, err := svc.Update(ctx, 1, reconcile.Patch{Transcript: ptr("hello")})
			Expect(err).NotTo(HaveOccurred())
			Expect(lead.Transcript).To(Equal("hello"))
			Expect(leads.getCalls).To(BeZero())
			Expect(publisher.Events()).To(HaveLen(1))
			Expect(publisher.Events()[0].Kind()).To(Equal("lead.updated"))
			Expect(publisher.Events()[0].LeadID).To(Equal(lead.ID))
			Expect(publisher.Events()[0].Lead).NotTo(BeNil())
			Expect(*publisher.Events()[0].Lead).To(Equal(*lead))
		})

		It("maps a scalar write to a missing lead to ErrLeadNotFound", func() {
			leads.updateFn = nil
			_, err := svc.Update(ctx, 1, reconcile.Patch{Transcript: ptr("hello")})
			Expect(err).To(MatchError(service.ErrLeadNotFound))
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("signals not found before merging into a missing lead", func() {
			leads.getByIDFn = nil
			_, err := svc.Update(ctx, 1, reconcile.Patch{
				SentimentHistory:    []model.SentimentEntry{{Score: 10}},
				HasSentimentHistory: true,
			})
			Expect(err).To(MatchError(service.ErrLeadNotFound))
			Expect(leads.updateCalls).To(BeZero())
		})

		It("appends history stamped with the service clock", func() {
			lead, err := svc.Update(ctx, 1, reconcile.Patch{
				SentimentHistory:    []model.SentimentEntry{{Score: 81, Reason: "wants a demo"}},
				HasSentimentHistory: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(lead.SentimentHistory).To(HaveLen(2))
			Expect(lead.SentimentHistory[1].Timestamp).To(Equal(now))
			Expect(lead.SentimentScore).To(Equal(81))
			Expect(lead.Version).To(Equal(int64(3)))
		})

		It("re-reads and re-merges after losing a version race", func() {
			raced := false
			inner := leads.updateFn
			leads.updateFn = func(ctx context.Context, id int64, c reconcile.Changes) (*model.Lead, error) {
				if !raced {
					raced = true
					// A concurrent writer appends its own entry first.
					stored.SentimentHistory = append(stored.SentimentHistory, model.SentimentEntry{Score: 30, Reason: "other writer"})
					stored.SentimentScore = 30
					stored.Version++
				}
				return inner(ctx, id, c)
			}

			lead, err := svc.Update(ctx, 1, reconcile.Patch{
				SentimentHistory:    []model.SentimentEntry{{Score: 90, Reason: "ours"}},
				HasSentimentHistory: true,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(leads.getCalls).To(Equal(2))
			Expect(lead.SentimentHistory).To(HaveLen(3))
			Expect(lead.SentimentHistory[1].Reason).To(Equal("other writer"))
			Expect(lead.SentimentHistory[2].Reason).To(Equal("ours"))
			Expect(lead.SentimentScore).To(Equal(90))

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind()).To(Equal("lead.updated"))
			Expect(*events[0].Lead).To(Equal(*lead))
			Expect(events[0].Lead.Version).To(Equal(int64(4)))
		})

		It("gives up with ErrLeadConflict after the configured attempts", func() {
			leads.updateFn = func(context.Context, int64, reconcile.Changes) (*model.Lead, error) {
				return nil, store.ErrVersionConflict
			}
			_, err := svc.Update(ctx, 1, reconcile.Patch{HasDocuments: true, Documents: []reconcile.DocumentPatch{{Type: "proposal"}}})
			Expect(err).To(MatchError(service.ErrLeadConflict))
			Expect(leads.updateCalls).To(Equal(3))
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("does not retry unexpected store failures", func() {
			leads.updateFn = func(context.Context, int64, reconcile.Changes) (*model.Lead, error) {
				return nil, errors.New("disk full")
			}
			_, err := svc.Update(ctx, 1, reconcile.Patch{SentimentScore: ptr(10)})
			Expect(err).To(MatchError(ContainSubstring("disk full")))
			Expect(leads.updateCalls).To(Equal(1))
		})
	})
})
