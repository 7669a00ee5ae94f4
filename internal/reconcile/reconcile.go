// Package reconcile holds the merge policies for partial lead updates.
// Everything here is a pure function of the stored lead and the patch.
package reconcile

import (
	"errors"
	"time"

	"basegraph.app/leads/common"
	"basegraph.app/leads/internal/model"
)

// ErrCurrentRequired is returned when Plan is called without the stored lead
// for a patch whose policy depends on it.
var ErrCurrentRequired = errors.New("current lead is required to merge this patch")

// DirectScoreReason is recorded on the history entry synthesized for a patch
// that sets sentiment_score without a history delta.
const DirectScoreReason = "Sentiment score updated"

// Changes are the column writes computed by Plan. Nil fields keep the stored
// value. SentimentHistory and Documents hold the complete merged values.
type Changes struct {
	CompanyName      *string
	ProjectName      *string
	ContactName      *string
	ContactEmail     *string
	ContactPhone     *string
	SentimentScore   *int
	SentimentHistory []model.SentimentEntry
	Value            *model.LeadValue
	Term             *model.LeadTerm
	TeamSize         *int
	ProjectSummary   *string
	ImportantNotes   *string
	Transcript       *string
	Documents        []model.Document
	Status           *model.LeadStatus
	UserID           *string
	SetUserID        bool

	// ExpectedVersion is the version the merge was computed against. The
	// write must only commit if the row still has it.
	ExpectedVersion *int64
}

// Reconcile returns the lead that results from applying p to current.
func Reconcile(current model.Lead, p Patch) (model.Lead, error) {
	changes, err := Plan(&current, p)
	if err != nil {
		return model.Lead{}, err
	}
	return changes.Apply(current), nil
}

// Plan computes the column writes for p. current may be nil only when
// p.NeedsCurrent() is false.
//
// Scalar fields are last-write-wins. A non-empty sentiment_history delta is
// appended to the stored timeline and sentiment_score is re-derived from its
// last entry; any sentiment_score in the same patch is ignored. Documents are
// upserted by type.
func Plan(current *model.Lead, p Patch) (Changes, error) {
	if p.Empty() {
		return Changes{}, ErrNoValidFields
	}
	if p.NeedsCurrent() && current == nil {
		return Changes{}, ErrCurrentRequired
	}

	c := Changes{
		CompanyName:    p.CompanyName,
		ProjectName:    p.ProjectName,
		ContactName:    p.ContactName,
		ContactEmail:   p.ContactEmail,
		ContactPhone:   p.ContactPhone,
		Value:          p.Value,
		Term:           p.Term,
		TeamSize:       p.TeamSize,
		ProjectSummary: p.ProjectSummary,
		ImportantNotes: p.ImportantNotes,
		Transcript:     p.Transcript,
		Status:         p.Status,
		UserID:         p.UserID,
		SetUserID:      p.HasUserID,
	}

	var delta []model.SentimentEntry
	switch {
	case p.HasSentimentHistory:
		delta = p.SentimentHistory
	case p.SentimentScore != nil:
		delta = []model.SentimentEntry{{Timestamp: p.At, Score: *p.SentimentScore, Reason: DirectScoreReason}}
	}
	if len(delta) > 0 {
		history := AppendHistory(current.SentimentHistory, delta, p.At)
		score := history[len(history)-1].Score
		c.SentimentHistory = history
		c.SentimentScore = &score
	}

	if p.HasDocuments && len(p.Documents) > 0 {
		c.Documents = MergeDocuments(current.Documents, p.Documents)
	}

	if current != nil {
		v := current.Version
		c.ExpectedVersion = &v
	}

	return c, nil
}

// AppendHistory returns existing followed by delta. Entries with a zero
// timestamp are stamped with at. existing is never modified.
func AppendHistory(existing, delta []model.SentimentEntry, at time.Time) []model.SentimentEntry {
	out := make([]model.SentimentEntry, 0, len(existing)+len(delta))
	out = append(out, existing...)
	for _, e := range delta {
		if e.Timestamp.IsZero() {
			e.Timestamp = at
		}
		out = append(out, e)
	}
	return out
}

// MergeDocuments upserts incoming into existing by document type. An entry
// whose type already exists is overlaid field by field; otherwise it is
// appended. existing is never modified.
func MergeDocuments(existing []model.Document, incoming []DocumentPatch) []model.Document {
	out := make([]model.Document, len(existing), len(existing)+len(incoming))
	copy(out, existing)

	for _, in := range incoming {
		status := DeriveStatus(in)

		idx := -1
		for i := range out {
			if out[i].Type == in.Type {
				idx = i
				break
			}
		}

		if idx >= 0 {
			doc := out[idx]
			doc.Status = status
			if in.HasURL {
				doc.URL = in.URL
			}
			if in.Filename != nil {
				doc.Filename = *in.Filename
			}
			out[idx] = doc
			continue
		}

		doc := model.Document{
			Type:     in.Type,
			Status:   status,
			URL:      in.URL,
			Filename: common.DocumentFilename(string(in.Type)),
		}
		if in.Filename != nil {
			doc.Filename = *in.Filename
		}
		out = append(out, doc)
	}
	return out
}

// DeriveStatus applies the document status rule: a url means the document is
// ready; without a url an explicit status is kept, else it is generating.
func DeriveStatus(d DocumentPatch) model.DocumentStatus {
	if d.URL != nil && *d.URL != "" {
		return model.DocumentStatusReady
	}
	if d.Status != nil {
		return *d.Status
	}
	return model.DocumentStatusGenerating
}

// Apply overlays c onto l and returns the result. Version and timestamps are
// owned by the store and left untouched.
func (c Changes) Apply(l model.Lead) model.Lead {
	out := l.Clone()

	setString(&out.CompanyName, c.CompanyName)
	setString(&out.ProjectName, c.ProjectName)
	setString(&out.ContactName, c.ContactName)
	setString(&out.ContactEmail, c.ContactEmail)
	setString(&out.ContactPhone, c.ContactPhone)
	setString(&out.ProjectSummary, c.ProjectSummary)
	setString(&out.ImportantNotes, c.ImportantNotes)
	setString(&out.Transcript, c.Transcript)

	if c.SentimentScore != nil {
		out.SentimentScore = *c.SentimentScore
	}
	if c.SentimentHistory != nil {
		out.SentimentHistory = append([]model.SentimentEntry(nil), c.SentimentHistory...)
	}
	if c.Value != nil {
		out.Value = *c.Value
	}
	if c.Term != nil {
		out.Term = *c.Term
	}
	if c.TeamSize != nil {
		out.TeamSize = *c.TeamSize
	}
	if c.Documents != nil {
		out.Documents = model.Lead{Documents: c.Documents}.Clone().Documents
	}
	if c.Status != nil {
		out.Status = *c.Status
	}
	if c.SetUserID {
		if c.UserID == nil {
			out.UserID = nil
		} else {
			u := *c.UserID
			out.UserID = &u
		}
	}
	return out
}

// Merging reports whether the changes were computed from a stored lead and
// therefore must be written conditionally.
func (c Changes) Merging() bool {
	return c.ExpectedVersion != nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
