package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/samber/lo"

	"basegraph.app/leads/common"
	"basegraph.app/leads/common/id"
	"basegraph.app/leads/common/logger"
	"basegraph.app/leads/internal/changefeed"
	"basegraph.app/leads/internal/model"
	"basegraph.app/leads/internal/reconcile"
	"basegraph.app/leads/internal/store"
)

// CreateLeadParams are the caller-suppliable fields of a new lead. The
// sentiment timeline and the document set are always synthesized.
type CreateLeadParams struct {
	CompanyName    string
	ProjectName    string
	ContactName    string
	ContactEmail   string
	ContactPhone   string
	ProjectSummary string
	SentimentScore *int
	Value          *model.LeadValue
	Term           *model.LeadTerm
	TeamSize       *int
	Status         *model.LeadStatus
	UserID         *string
}

type LeadService interface {
	Create(ctx context.Context, params CreateLeadParams) (*model.Lead, error)
	Get(ctx context.Context, id int64) (*model.Lead, error)
	List(ctx context.Context) ([]model.Lead, error)
	Update(ctx context.Context, id int64, patch reconcile.Patch) (*model.Lead, error)
}

type LeadServiceConfig struct {
	// MaxAttempts bounds read-merge-write cycles for merging updates.
	MaxAttempts int
	// RetryInterval is the first backoff delay after a version conflict.
	RetryInterval time.Duration
	Now           func() time.Time
}

type leadService struct {
	leads     store.LeadStore
	publisher changefeed.Publisher
	cfg       LeadServiceConfig
}

func NewLeadService(leads store.LeadStore, publisher changefeed.Publisher, cfg LeadServiceConfig) LeadService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 20 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &leadService{
		leads:     leads,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *leadService) Create(ctx context.Context, params CreateLeadParams) (*model.Lead, error) {
	sc := logger.StartSpan(ctx, "leads.service.lead.create")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{Component: "leads.service.lead"})

	if err := validateCreate(params); err != nil {
		return nil, err
	}

	now := s.cfg.Now().UTC()
	score := lo.FromPtrOr(params.SentimentScore, model.DefaultSentimentScore)

	lead := &model.Lead{
		ID:             id.New(),
		CompanyName:    strings.TrimSpace(params.CompanyName),
		ProjectName:    strings.TrimSpace(params.ProjectName),
		ContactName:    params.ContactName,
		ContactEmail:   params.ContactEmail,
		ContactPhone:   params.ContactPhone,
		ProjectSummary: params.ProjectSummary,
		SentimentScore: score,
		SentimentHistory: []model.SentimentEntry{
			{Timestamp: now, Score: score, Reason: model.InitialSentimentNote},
		},
		Value:    lo.FromPtrOr(params.Value, model.LeadValueUnknown),
		Term:     lo.FromPtrOr(params.Term, model.LeadTermUnknown),
		TeamSize: lo.FromPtrOr(params.TeamSize, model.DefaultTeamSize),
		Documents: []model.Document{{
			Type:     model.DocumentTypePresentation,
			Status:   model.DocumentStatusGenerating,
			Filename: common.DocumentFilename(string(model.DocumentTypePresentation)),
		}},
		Status: lo.FromPtrOr(params.Status, model.LeadStatusLive),
		UserID: params.UserID,
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{LeadID: logger.Ptr(lead.ID)})

	if err := s.leads.Create(ctx, lead); err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("creating lead: %w", err)
	}

	slog.InfoContext(ctx, "lead created", "company_name", lead.CompanyName)
	s.publish(ctx, model.LeadChanged(model.ChangeCreated, *lead))
	return lead, nil
}

func (s *leadService) Get(ctx context.Context, id int64) (*model.Lead, error) {
	lead, err := s.leads.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("fetching lead: %w", err)
	}
	return lead, nil
}

func (s *leadService) List(ctx context.Context) ([]model.Lead, error) {
	leads, err := s.leads.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return leads, nil
}

// Update applies patch to the lead. Scalar-only patches are written without
// reading the row. Patches that merge into stored values run a
// read-plan-write cycle guarded by the row version and retried on conflict.
func (s *leadService) Update(ctx context.Context, id int64, patch reconcile.Patch) (*model.Lead, error) {
	sc := logger.StartSpan(ctx, "leads.service.lead.update", logger.LeadAttr(id))
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{
		LeadID:    logger.Ptr(id),
		Component: "leads.service.lead",
	})

	if patch.Empty() {
		return nil, reconcile.ErrNoValidFields
	}
	if patch.At.IsZero() {
		patch.At = s.cfg.Now().UTC()
	}

	var (
		lead *model.Lead
		err  error
	)
	if patch.NeedsCurrent() {
		lead, err = s.mergeUpdate(ctx, id, patch)
	} else {
		lead, err = s.overwrite(ctx, id, patch)
	}
	if err != nil {
		if !errors.Is(err, ErrLeadNotFound) {
			sc.RecordError(err)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "lead updated", "fields", patch.Fields(), "version", lead.Version)
	s.publish(ctx, model.LeadChanged(model.ChangeUpdated, *lead))
	return lead, nil
}

func (s *leadService) overwrite(ctx context.Context, id int64, patch reconcile.Patch) (*model.Lead, error) {
	changes, err := reconcile.Plan(nil, patch)
	if err != nil {
		return nil, err
	}
	lead, err := s.leads.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("updating lead: %w", err)
	}
	return lead, nil
}

func (s *leadService) mergeUpdate(ctx context.Context, id int64, patch reconcile.Patch) (*model.Lead, error) {
	attempt := 0
	op := func() (*model.Lead, error) {
		attempt++
		current, err := s.leads.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, backoff.Permanent(ErrLeadNotFound)
			}
			return nil, backoff.Permanent(fmt.Errorf("fetching lead: %w", err))
		}

		changes, err := reconcile.Plan(current, patch)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		lead, err := s.leads.Update(ctx, id, changes)
		switch {
		case err == nil:
			return lead, nil
		case errors.Is(err, store.ErrVersionConflict):
			slog.DebugContext(ctx, "lead version moved, retrying merge", "attempt", attempt, "expected_version", current.Version)
			return nil, err
		case errors.Is(err, store.ErrNotFound):
			return nil, backoff.Permanent(ErrLeadNotFound)
		default:
			return nil, backoff.Permanent(fmt.Errorf("updating lead: %w", err))
		}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInterval
	b.MaxInterval = 20 * s.cfg.RetryInterval

	lead, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.cfg.MaxAttempts)),
	)
	if err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			slog.WarnContext(ctx, "giving up lead merge after repeated version conflicts", "attempts", attempt)
			return nil, ErrLeadConflict
		}
		return nil, err
	}
	return lead, nil
}

// publish hands the event to the change feed. The mutation is already
// committed, so a failed publish is logged and not returned.
func (s *leadService) publish(ctx context.Context, event model.ChangeEvent) {
	if s.publisher == nil {
		return
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ChangeKind: logger.Ptr(event.Kind())})
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish change event", "error", err)
	}
}

func validateCreate(p CreateLeadParams) error {
	if strings.TrimSpace(p.CompanyName) == "" {
		return invalid("company_name", "is required")
	}
	if strings.TrimSpace(p.ProjectName) == "" {
		return invalid("project_name", "is required")
	}
	if p.SentimentScore != nil && (*p.SentimentScore < 0 || *p.SentimentScore > 100) {
		return invalid("sentiment_score", "must be between 0 and 100")
	}
	if p.Value != nil && !p.Value.Valid() {
		return invalid("value", "must be one of: low, medium, high, unknown")
	}
	if p.Term != nil && !p.Term.Valid() {
		return invalid("term", "must be one of: short, medium, long, unknown")
	}
	if p.TeamSize != nil && *p.TeamSize < 0 {
		return invalid("team_size", "must be at least 0")
	}
	if p.TeamSize != nil && *p.TeamSize > math.MaxInt32 {
		return invalid("team_size", "must be at most 2147483647")
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status", "must be one of: live, ended")
	}
	return nil
}
