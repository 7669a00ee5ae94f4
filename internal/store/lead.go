package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"basegraph.app/leads/core/db/sqlc"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/reconcile"
)

type leadStore struct {
	queries *sqlc.Queries
}

func newLeadStore(queries *sqlc.Queries) LeadStore {
	return &leadStore{queries: queries}
}

func (s *leadStore) GetByID(ctx context.Context, id int64) (*model.Lead, error) {
	row, err := s.queries.GetLead(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toLeadModel(row)
}

func (s *leadStore) List(ctx context.Context) ([]model.Lead, error) {
	rows, err := s.queries.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]model.Lead, 0, len(rows))
	for _, row := range rows {
		lead, err := toLeadModel(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *lead)
	}
	return result, nil
}

func (s *leadStore) Create(ctx context.Context, lead *model.Lead) error {
	if err := checkInt32("team_size", &lead.TeamSize); err != nil {
		return err
	}
	history, err := marshalJSONB(lead.SentimentHistory)
	if err != nil {
		return fmt.Errorf("encoding sentiment history: %w", err)
	}
	documents, err := marshalJSONB(lead.Documents)
	if err != nil {
		return fmt.Errorf("encoding documents: %w", err)
	}

	row, err := s.queries.CreateLead(ctx, sqlc.CreateLeadParams{
		ID:               lead.ID,
		CompanyName:      lead.CompanyName,
		ProjectName:      lead.ProjectName,
		ContactName:      lead.ContactName,
		ContactEmail:     lead.ContactEmail,
		ContactPhone:     lead.ContactPhone,
		SentimentScore:   int32(lead.SentimentScore),
		SentimentHistory: history,
		Value:            string(lead.Value),
		Term:             string(lead.Term),
		TeamSize:         int32(lead.TeamSize),
		ProjectSummary:   lead.ProjectSummary,
		ImportantNotes:   lead.ImportantNotes,
		Transcript:       lead.Transcript,
		Documents:        documents,
		Status:           string(lead.Status),
		UserID:           lead.UserID,
	})
	if err != nil {
		return err
	}
	created, err := toLeadModel(row)
	if err != nil {
		return err
	}
	*lead = *created
	return nil
}

func (s *leadStore) Update(ctx context.Context, id int64, changes reconcile.Changes) (*model.Lead, error) {
	params, err := toUpdateLeadParams(id, changes)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.UpdateLead(ctx, params)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if !changes.Merging() {
			return nil, ErrNotFound
		}
		// A conditional write matches nothing both when the row is gone and
		// when its version moved on.
		exists, existsErr := s.queries.LeadExists(ctx, id)
		if existsErr != nil {
			return nil, existsErr
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrVersionConflict
	}
	return toLeadModel(row)
}

func toUpdateLeadParams(id int64, c reconcile.Changes) (sqlc.UpdateLeadParams, error) {
	if err := checkInt32("team_size", c.TeamSize); err != nil {
		return sqlc.UpdateLeadParams{}, err
	}
	params := sqlc.UpdateLeadParams{
		ID:              id,
		CompanyName:     c.CompanyName,
		ProjectName:     c.ProjectName,
		ContactName:     c.ContactName,
		ContactEmail:    c.ContactEmail,
		ContactPhone:    c.ContactPhone,
		ProjectSummary:  c.ProjectSummary,
		ImportantNotes:  c.ImportantNotes,
		Transcript:      c.Transcript,
		SetUserID:       c.SetUserID,
		UserID:          c.UserID,
		ExpectedVersion: c.ExpectedVersion,
		SentimentScore:  int32Ptr(c.SentimentScore),
		TeamSize:        int32Ptr(c.TeamSize),
		Value:           stringPtr(c.Value),
		Term:            stringPtr(c.Term),
		Status:          stringPtr(c.Status),
	}

	if c.SentimentHistory != nil {
		b, err := json.Marshal(c.SentimentHistory)
		if err != nil {
			return sqlc.UpdateLeadParams{}, fmt.Errorf("encoding sentiment history: %w", err)
		}
		params.SentimentHistory = b
	}
	if c.Documents != nil {
		b, err := json.Marshal(c.Documents)
		if err != nil {
			return sqlc.UpdateLeadParams{}, fmt.Errorf("encoding documents: %w", err)
		}
		params.Documents = b
	}
	return params, nil
}

func toLeadModel(row sqlc.Lead) (*model.Lead, error) {
	lead := &model.Lead{
		ID:             row.ID,
		CompanyName:    row.CompanyName,
		ProjectName:    row.ProjectName,
		ContactName:    row.ContactName,
		ContactEmail:   row.ContactEmail,
		ContactPhone:   row.ContactPhone,
		SentimentScore: int(row.SentimentScore),
		Value:          model.LeadValue(row.Value),
		Term:           model.LeadTerm(row.Term),
		TeamSize:       int(row.TeamSize),
		ProjectSummary: row.ProjectSummary,
		ImportantNotes: row.ImportantNotes,
		Transcript:     row.Transcript,
		Status:         model.LeadStatus(row.Status),
		UserID:         row.UserID,
		Version:        row.Version,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
	if err := unmarshalJSONB(row.SentimentHistory, &lead.SentimentHistory); err != nil {
		return nil, fmt.Errorf("decoding sentiment history of lead %d: %w", row.ID, err)
	}
	if err := unmarshalJSONB(row.Documents, &lead.Documents); err != nil {
		return nil, fmt.Errorf("decoding documents of lead %d: %w", row.ID, err)
	}
	return lead, nil
}

// marshalJSONB encodes a slice column, storing nil as an empty array.
func marshalJSONB[T any](v []T) ([]byte, error) {
	if v == nil {
		v = []T{}
	}
	return json.Marshal(v)
}

// unmarshalJSONB decodes a slice column, always leaving a non-nil slice.
func unmarshalJSONB[T any](data []byte, dst *[]T) error {
	*dst = []T{}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}

// checkInt32 rejects values an INTEGER column would overflow on.
func checkInt32(column string, v *int) error {
	if v != nil && (*v < math.MinInt32 || *v > math.MaxInt32) {
		return fmt.Errorf("%s %d out of range for integer column", column, *v)
	}
	return nil
}

func int32Ptr(v *int) *int32 {
	if v == nil {
		return nil
	}
	i := int32(*v)
	return &i
}

func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
