package model

import "time"

type (
	LeadValue      string
	LeadTerm       string
	LeadStatus     string
	DocumentType   string
	DocumentStatus string
)

const (
	LeadValueLow     LeadValue = "low"
	LeadValueMedium  LeadValue = "medium"
	LeadValueHigh    LeadValue = "high"
	LeadValueUnknown LeadValue = "unknown"
)

const (
	LeadTermShort   LeadTerm = "short"
	LeadTermMedium  LeadTerm = "medium"
	LeadTermLong    LeadTerm = "long"
	LeadTermUnknown LeadTerm = "unknown"
)

const (
	LeadStatusLive  LeadStatus = "live"
	LeadStatusEnded LeadStatus = "ended"
)

const (
	DocumentStatusGenerating DocumentStatus = "generating"
	DocumentStatusReady      DocumentStatus = "ready"
)

const DocumentTypePresentation DocumentType = "presentation"

const (
	DefaultSentimentScore = 50
	DefaultTeamSize       = 1
	InitialSentimentNote  = "Initial sentiment"
)

func (v LeadValue) Valid() bool {
	switch v {
	case LeadValueLow, LeadValueMedium, LeadValueHigh, LeadValueUnknown:
		return true
	}
	return false
}

func (t LeadTerm) Valid() bool {
	switch t {
	case LeadTermShort, LeadTermMedium, LeadTermLong, LeadTermUnknown:
		return true
	}
	return false
}

func (s LeadStatus) Valid() bool {
	return s == LeadStatusLive || s == LeadStatusEnded
}

func (s DocumentStatus) Valid() bool {
	return s == DocumentStatusGenerating || s == DocumentStatusReady
}

// SentimentEntry is one point of the sentiment timeline. Timestamps are
// supplied by the agent and are not required to be monotonic.
type SentimentEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Score     int       `json:"score"`
	Reason    string    `json:"reason"`
}

// Document is a generated artifact attached to a lead, unique per Type.
type Document struct {
	Type     DocumentType   `json:"type"`
	Status   DocumentStatus `json:"status"`
	URL      *string        `json:"url"`
	Filename string         `json:"filename"`
}

// Lead is the aggregate root. SentimentScore mirrors the score of the last
// SentimentHistory entry; Version increments on every committed write.
type Lead struct {
	ID               int64            `json:"id,string"`
	CompanyName      string           `json:"company_name"`
	ProjectName      string           `json:"project_name"`
	ContactName      string           `json:"contact_name"`
	ContactEmail     string           `json:"contact_email"`
	ContactPhone     string           `json:"contact_phone"`
	SentimentScore   int              `json:"sentiment_score"`
	SentimentHistory []SentimentEntry `json:"sentiment_history"`
	Value            LeadValue        `json:"value"`
	Term             LeadTerm         `json:"term"`
	TeamSize         int              `json:"team_size"`
	ProjectSummary   string           `json:"project_summary"`
	ImportantNotes   string           `json:"important_notes"`
	Transcript       string           `json:"transcript"`
	Documents        []Document       `json:"documents"`
	Status           LeadStatus       `json:"status"`
	UserID           *string          `json:"user_id"`
	Version          int64            `json:"version"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Clone returns a copy that shares no slices or pointers with l.
func (l Lead) Clone() Lead {
	out := l
	if l.SentimentHistory != nil {
		out.SentimentHistory = append([]SentimentEntry(nil), l.SentimentHistory...)
	}
	if l.Documents != nil {
		out.Documents = make([]Document, len(l.Documents))
		for i, d := range l.Documents {
			out.Documents[i] = d
			if d.URL != nil {
				u := *d.URL
				out.Documents[i].URL = &u
			}
		}
	}
	if l.UserID != nil {
		u := *l.UserID
		out.UserID = &u
	}
	return out
}
