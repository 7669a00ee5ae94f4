package reconcile_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/reconcile"
)

var _ = Describe("ParsePatch", func() {
	fieldError := func(body string) *reconcile.FieldError {
		_, err := reconcile.ParsePatch([]byte(body))
		var fe *reconcile.FieldError
		ExpectWithOffset(1, err).To(BeAssignableToTypeOf(fe))
		return err.(*reconcile.FieldError)
	}

	It("decodes scalar fields", func() {
		p, err := reconcile.ParsePatch([]byte(`{"company_name":"Acme","team_size":4,"value":"high","status":"ended"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(*p.CompanyName).To(Equal("Acme"))
		Expect(*p.TeamSize).To(Equal(4))
		Expect(*p.Value).To(Equal(model.LeadValueHigh))
		Expect(*p.Status).To(Equal(model.LeadStatusEnded))
		Expect(p.Fields()).To(ConsistOf("company_name", "team_size", "value", "status"))
		Expect(p.NeedsCurrent()).To(BeFalse())
	})

	It("reports no valid fields for an empty object", func() {
		_, err := reconcile.ParsePatch([]byte(`{}`))
		Expect(err).To(MatchError(reconcile.ErrNoValidFields))
	})

	It("reports no valid fields when every key is unknown", func() {
		_, err := reconcile.ParsePatch([]byte(`{"id":"1","created_at":"2026-01-01T00:00:00Z"}`))
		Expect(err).To(MatchError(reconcile.ErrNoValidFields))
	})

	It("rejects unknown keys next to recognized ones", func() {
		fe := fieldError(`{"company_name":"Acme","version":2,"id":"9"}`)
		Expect(fe.Field).To(Equal("id, version"))
		Expect(fe.Reason).To(Equal("is not an updatable field"))
	})

	It("rejects bodies that are not objects", func() {
		Expect(fieldError(`[1,2]`).Field).To(Equal("body"))
		Expect(fieldError(`null`).Field).To(Equal("body"))
	})

	It("rejects null for fields other than user_id", func() {
		fe := fieldError(`{"team_size":null}`)
		Expect(fe.Field).To(Equal("team_size"))
		Expect(fe.Reason).To(Equal("must not be null"))
	})

	It("treats a null user_id as clearing the owner", func() {
		p, err := reconcile.ParsePatch([]byte(`{"user_id":null}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(p.HasUserID).To(BeTrue())
		Expect(p.UserID).To(BeNil())
	})

	It("rejects values of the wrong type", func() {
		Expect(fieldError(`{"team_size":"ten"}`).Field).To(Equal("team_size"))
	})

	It("rejects enum values outside their set", func() {
		fe := fieldError(`{"value":"huge"}`)
		Expect(fe.Field).To(Equal("value"))
		Expect(fe.Reason).To(Equal("must be one of: low, medium, high, unknown"))
	})

	It("bounds sentiment scores", func() {
		fe := fieldError(`{"sentiment_score":101}`)
		Expect(fe.Field).To(Equal("sentiment_score"))
		Expect(fe.Reason).To(Equal("must be at most 100"))

		fe = fieldError(`{"sentiment_history":[{"score":-1,"reason":"x"}]}`)
		Expect(fe.Field).To(Equal("sentiment_history[0].score"))
	})

	It("requires a score on history entries", func() {
		fe := fieldError(`{"sentiment_history":[{"reason":"no score"}]}`)
		Expect(fe.Field).To(Equal("sentiment_history[0].score"))
		Expect(fe.Reason).To(Equal("is required"))
	})

	It("rejects empty company names", func() {
		Expect(fieldError(`{"company_name":""}`).Field).To(Equal("company_name"))
	})

	It("rejects names that are only whitespace", func() {
		fe := fieldError(`{"company_name":"   "}`)
		Expect(fe.Field).To(Equal("company_name"))
		Expect(fe.Reason).To(Equal("must not be empty"))
		Expect(fieldError(`{"project_name":"\t\n"}`).Field).To(Equal("project_name"))
	})

	It("trims surrounding whitespace from names", func() {
		p, err := reconcile.ParsePatch([]byte(`{"company_name":"  Acme ","project_name":" Rocket"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(*p.CompanyName).To(Equal("Acme"))
		Expect(*p.ProjectName).To(Equal("Rocket"))
	})

	It("bounds team_size to what an integer column holds", func() {
		for _, body := range []string{`{"team_size":2147483648}`, `{"team_size":4294967297}`} {
			fe := fieldError(body)
			Expect(fe.Field).To(Equal("team_size"))
			Expect(fe.Reason).To(Equal("must be at most 2147483647"))
		}

		p, err := reconcile.ParsePatch([]byte(`{"team_size":2147483647}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(*p.TeamSize).To(Equal(2147483647))
	})

	It("decodes sentiment history entries", func() {
		p, err := reconcile.ParsePatch([]byte(`{"sentiment_history":[{"timestamp":"2026-01-02T10:00:00Z","score":70,"reason":"warmer"},{"score":80}]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(p.HasSentimentHistory).To(BeTrue())
		Expect(p.NeedsCurrent()).To(BeTrue())
		Expect(p.SentimentHistory).To(HaveLen(2))
		Expect(p.SentimentHistory[0].Timestamp).To(Equal(time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)))
		Expect(p.SentimentHistory[1].Timestamp.IsZero()).To(BeTrue())
		Expect(p.SentimentHistory[1].Score).To(Equal(80))
	})

	It("keeps an empty history array present", func() {
		p, err := reconcile.ParsePatch([]byte(`{"sentiment_history":[]}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(p.HasSentimentHistory).To(BeTrue())
		Expect(p.SentimentHistory).To(BeEmpty())
	})

	Describe("documents", func() {
		It("records url presence separately from its value", func() {
			p, err := reconcile.ParsePatch([]byte(`{"documents":[{"type":"presentation","url":null},{"type":"contract"}]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Documents).To(HaveLen(2))
			Expect(p.Documents[0].HasURL).To(BeTrue())
			Expect(p.Documents[0].URL).To(BeNil())
			Expect(p.Documents[1].HasURL).To(BeFalse())
		})

		It("requires a type", func() {
			fe := fieldError(`{"documents":[{"url":"https://x"}]}`)
			Expect(fe.Field).To(Equal("documents[0].type"))
			Expect(fe.Reason).To(Equal("is required"))
		})

		It("rejects unknown document keys", func() {
			fe := fieldError(`{"documents":[{"type":"presentation"},{"type":"contract","size":3}]}`)
			Expect(fe.Field).To(Equal("documents[1].size"))
		})

		It("rejects unknown document statuses", func() {
			Expect(fieldError(`{"documents":[{"type":"presentation","status":"failed"}]}`).Field).To(Equal("documents[0].status"))
		})

		It("rejects a non-array value", func() {
			Expect(fieldError(`{"documents":{"type":"presentation"}}`).Field).To(Equal("documents"))
		})
	})
})
