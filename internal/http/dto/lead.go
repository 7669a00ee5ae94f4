package dto

import (
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/service"
)

// CreateLeadRequest carries the fields a caller may set on a new lead.
// company_name and project_name are checked by the service so that blank
// strings are rejected along with missing ones.
type CreateLeadRequest struct {
	CompanyName    string  `json:"company_name"`
	ProjectName    string  `json:"project_name"`
	ContactName    string  `json:"contact_name" binding:"max=255"`
	ContactEmail   string  `json:"contact_email" binding:"omitempty,email,max=255"`
	ContactPhone   string  `json:"contact_phone" binding:"max=64"`
	ProjectSummary string  `json:"project_summary"`
	SentimentScore *int    `json:"sentiment_score" binding:"omitempty,min=0,max=100"`
	Value          *string `json:"value" binding:"omitempty,oneof=low medium high unknown"`
	Term           *string `json:"term" binding:"omitempty,oneof=short medium long unknown"`
	TeamSize       *int    `json:"team_size" binding:"omitempty,min=0,max=2147483647"`
	Status         *string `json:"status" binding:"omitempty,oneof=live ended"`
	UserID         *string `json:"user_id"`
}

func (r CreateLeadRequest) ToParams() service.CreateLeadParams {
	return service.CreateLeadParams{
		CompanyName:    r.CompanyName,
		ProjectName:    r.ProjectName,
		ContactName:    r.ContactName,
		ContactEmail:   r.ContactEmail,
		ContactPhone:   r.ContactPhone,
		ProjectSummary: r.ProjectSummary,
		SentimentScore: r.SentimentScore,
		Value:          enumPtr[model.LeadValue](r.Value),
		Term:           enumPtr[model.LeadTerm](r.Term),
		TeamSize:       r.TeamSize,
		Status:         enumPtr[model.LeadStatus](r.Status),
		UserID:         r.UserID,
	}
}

type AppendMessageRequest struct {
	Role string `json:"role" binding:"required,oneof=user agent"`
	Text string `json:"text" binding:"required"`
}

func enumPtr[T ~string](s *string) *T {
	if s == nil {
		return nil
	}
	v := T(*s)
	return &v
}
