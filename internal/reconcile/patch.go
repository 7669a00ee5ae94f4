package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"basegraph.app/leads/internal/model"
)

// ErrNoValidFields is returned when a patch carries none of the recognized keys.
var ErrNoValidFields = errors.New("no valid fields to update")

// FieldError reports a rejected patch field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Patch is a partial update to a lead. Pointer fields are nil when absent.
// The Has* flags record presence for fields where an empty or null value is
// meaningful.
type Patch struct {
	CompanyName    *string
	ProjectName    *string
	ContactName    *string
	ContactEmail   *string
	ContactPhone   *string
	SentimentScore *int
	Value          *model.LeadValue
	Term           *model.LeadTerm
	TeamSize       *int
	ProjectSummary *string
	ImportantNotes *string
	Transcript     *string
	Status         *model.LeadStatus

	UserID    *string
	HasUserID bool

	SentimentHistory    []model.SentimentEntry
	HasSentimentHistory bool

	Documents    []DocumentPatch
	HasDocuments bool

	// At is when the patch was received. It stamps history entries that
	// arrive without a timestamp.
	At time.Time
}

// DocumentPatch is one incoming document. Only Type is required; HasURL
// distinguishes an explicit null url from an absent one.
type DocumentPatch struct {
	Type     model.DocumentType
	Status   *model.DocumentStatus
	URL      *string
	HasURL   bool
	Filename *string
}

var patchKeys = map[string]struct{}{
	"company_name":      {},
	"project_name":      {},
	"contact_name":      {},
	"contact_email":     {},
	"contact_phone":     {},
	"sentiment_score":   {},
	"sentiment_history": {},
	"value":             {},
	"term":              {},
	"team_size":         {},
	"status":            {},
	"user_id":           {},
	"documents":         {},
	"project_summary":   {},
	"important_notes":   {},
	"transcript":        {},
}

var documentKeys = map[string]struct{}{
	"type":     {},
	"status":   {},
	"url":      {},
	"filename": {},
}

type patchInput struct {
	CompanyName      *string          `json:"company_name" validate:"omitnil,min=1"`
	ProjectName      *string          `json:"project_name" validate:"omitnil,min=1"`
	ContactName      *string          `json:"contact_name"`
	ContactEmail     *string          `json:"contact_email"`
	ContactPhone     *string          `json:"contact_phone"`
	SentimentScore   *int             `json:"sentiment_score" validate:"omitnil,min=0,max=100"`
	SentimentHistory []sentimentInput `json:"sentiment_history" validate:"dive"`
	Value            *string          `json:"value" validate:"omitnil,oneof=low medium high unknown"`
	Term             *string          `json:"term" validate:"omitnil,oneof=short medium long unknown"`
	TeamSize         *int             `json:"team_size" validate:"omitnil,min=0,max=2147483647"`
	Status           *string          `json:"status" validate:"omitnil,oneof=live ended"`
	UserID           *string          `json:"user_id"`
	ProjectSummary   *string          `json:"project_summary"`
	ImportantNotes   *string          `json:"important_notes"`
	Transcript       *string          `json:"transcript"`
}

type sentimentInput struct {
	Timestamp *time.Time `json:"timestamp"`
	Score     *int       `json:"score" validate:"required,min=0,max=100"`
	Reason    string     `json:"reason"`
}

type documentInput struct {
	Type     string  `json:"type" validate:"required"`
	Status   *string `json:"status" validate:"omitnil,oneof=generating ready"`
	URL      *string `json:"url"`
	Filename *string `json:"filename"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParsePatch decodes a JSON patch body. Unrecognized keys are rejected rather
// than dropped, and a body with no recognized keys yields ErrNoValidFields.
func ParsePatch(data []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Patch{}, &FieldError{Field: "body", Reason: "must be a JSON object"}
	}

	var unknown []string
	recognized := 0
	for key, value := range raw {
		if _, ok := patchKeys[key]; !ok {
			unknown = append(unknown, key)
			continue
		}
		recognized++
		if key != "user_id" && isNull(value) {
			return Patch{}, &FieldError{Field: key, Reason: "must not be null"}
		}
	}
	if recognized == 0 {
		return Patch{}, ErrNoValidFields
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Patch{}, &FieldError{Field: strings.Join(unknown, ", "), Reason: "is not an updatable field"}
	}

	// documents need per-key presence, so they are decoded separately.
	rawDocs, hasDocs := raw["documents"]
	delete(raw, "documents")

	body, err := json.Marshal(raw)
	if err != nil {
		return Patch{}, fmt.Errorf("re-encoding patch: %w", err)
	}
	var in patchInput
	if err := json.Unmarshal(body, &in); err != nil {
		return Patch{}, typeError(err)
	}
	in.CompanyName = trimPtr(in.CompanyName)
	in.ProjectName = trimPtr(in.ProjectName)
	if err := validate.Struct(in); err != nil {
		return Patch{}, validationError(err)
	}

	p := Patch{
		CompanyName:    in.CompanyName,
		ProjectName:    in.ProjectName,
		ContactName:    in.ContactName,
		ContactEmail:   in.ContactEmail,
		ContactPhone:   in.ContactPhone,
		SentimentScore: in.SentimentScore,
		TeamSize:       in.TeamSize,
		ProjectSummary: in.ProjectSummary,
		ImportantNotes: in.ImportantNotes,
		Transcript:     in.Transcript,
		UserID:         in.UserID,
	}
	_, p.HasUserID = raw["user_id"]
	if in.Value != nil {
		v := model.LeadValue(*in.Value)
		p.Value = &v
	}
	if in.Term != nil {
		t := model.LeadTerm(*in.Term)
		p.Term = &t
	}
	if in.Status != nil {
		s := model.LeadStatus(*in.Status)
		p.Status = &s
	}

	if _, ok := raw["sentiment_history"]; ok {
		p.HasSentimentHistory = true
		p.SentimentHistory = make([]model.SentimentEntry, 0, len(in.SentimentHistory))
		for _, e := range in.SentimentHistory {
			entry := model.SentimentEntry{Score: *e.Score, Reason: e.Reason}
			if e.Timestamp != nil {
				entry.Timestamp = *e.Timestamp
			}
			p.SentimentHistory = append(p.SentimentHistory, entry)
		}
	}

	if hasDocs {
		docs, err := parseDocuments(rawDocs)
		if err != nil {
			return Patch{}, err
		}
		p.HasDocuments = true
		p.Documents = docs
	}

	return p, nil
}

func parseDocuments(data json.RawMessage) ([]DocumentPatch, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &FieldError{Field: "documents", Reason: "must be an array of objects"}
	}

	docs := make([]DocumentPatch, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("documents[%d]", i)
		if item == nil {
			return nil, &FieldError{Field: field, Reason: "must be an object"}
		}
		for key := range item {
			if _, ok := documentKeys[key]; !ok {
				return nil, &FieldError{Field: field + "." + key, Reason: "is not a document field"}
			}
		}

		body, _ := json.Marshal(item)
		var in documentInput
		if err := json.Unmarshal(body, &in); err != nil {
			return nil, &FieldError{Field: field, Reason: "has a value of the wrong type"}
		}
		if err := validate.Struct(in); err != nil {
			fe := validationError(err)
			fe.Field = field + "." + fe.Field
			return nil, fe
		}

		doc := DocumentPatch{
			Type:     model.DocumentType(in.Type),
			URL:      in.URL,
			Filename: in.Filename,
		}
		_, doc.HasURL = item["url"]
		if in.Status != nil {
			s := model.DocumentStatus(*in.Status)
			doc.Status = &s
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Empty reports whether the patch carries no recognized field at all.
func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the wire names of the fields present in the patch.
func (p Patch) Fields() []string {
	var fields []string
	add := func(present bool, name string) {
		if present {
			fields = append(fields, name)
		}
	}
	add(p.CompanyName != nil, "company_name")
	add(p.ProjectName != nil, "project_name")
	add(p.ContactName != nil, "contact_name")
	add(p.ContactEmail != nil, "contact_email")
	add(p.ContactPhone != nil, "contact_phone")
	add(p.SentimentScore != nil, "sentiment_score")
	add(p.HasSentimentHistory, "sentiment_history")
	add(p.Value != nil, "value")
	add(p.Term != nil, "term")
	add(p.TeamSize != nil, "team_size")
	add(p.Status != nil, "status")
	add(p.HasUserID, "user_id")
	add(p.HasDocuments, "documents")
	add(p.ProjectSummary != nil, "project_summary")
	add(p.ImportantNotes != nil, "important_notes")
	add(p.Transcript != nil, "transcript")
	return fields
}

// NeedsCurrent reports whether Plan must see the stored lead. History and
// documents merge into their stored values, and a bare sentiment score is
// recorded as a history entry so the score never drifts from the timeline.
func (p Patch) NeedsCurrent() bool {
	return p.HasSentimentHistory || p.HasDocuments || p.SentimentScore != nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func typeError(err error) *FieldError {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) && ute.Field != "" {
		return &FieldError{Field: ute.Field, Reason: "has a value of the wrong type"}
	}
	return &FieldError{Field: "body", Reason: "is malformed"}
}

func validationError(err error) *FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FieldError{Field: "body", Reason: err.Error()}
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "min":
		if fe.Kind() == reflect.String {
			reason = "must not be empty"
		} else {
			reason = "must be at least " + fe.Param()
		}
	case "max":
		reason = "must be at most " + fe.Param()
	case "oneof":
		reason = "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		reason = "failed " + fe.Tag() + " validation"
	}
	return &FieldError{Field: field, Reason: reason}
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
