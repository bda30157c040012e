package amendments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Amendment, error)
	ListByContract(ctx context.Context, contractID int64) ([]Amendment, error)
	Create(ctx context.Context, a Amendment) (Amendment, error)
	Update(ctx context.Context, a Amendment, expectedVersion int64) (Amendment, error)
}

// ContractChecker confirms the parent contract exists.
type ContractChecker interface {
	Exists(ctx context.Context, contractID int64) (bool, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator drops cached values derived from amendments.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service orchestrates the amendment workflow.
type Service struct {
	repo        RepositoryPort
	contracts   ContractChecker
	audit       AuditPort
	invalidator Invalidator
	logger      *slog.Logger
	now         func() time.Time
}

// NewService constructs amendment service. contracts, audit and invalidator may be nil.
func NewService(repo RepositoryPort, contracts ContractChecker, audit AuditPort, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		contracts:   contracts,
		audit:       audit,
		invalidator: invalidator,
		logger:      logger,
		now:         time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// OpenInput describes a new amendment.
type OpenInput struct {
	ContractID   int64
	Number       string
	Type         Type
	Duration     float64
	DurationUnit calendar.Unit
	Description  string
	EntryDate    string
	Actor        string
}

// ChecklistInput carries a partial checklist update.
type ChecklistInput struct {
	ID      int64
	Version int64
	Patch   ChecklistPatch
	Actor   string
}

// NoteInput replaces the working legal note.
type NoteInput struct {
	ID      int64
	Version int64
	Note    string
	Actor   string
}

// DecisionInput records a legal ruling. An empty Note falls back to the working note.
type DecisionInput struct {
	ID       int64
	Version  int64
	Decision LegalDecision
	Note     string
	Actor    string
}

// CommentInput appends a discussion entry.
type CommentInput struct {
	ID      int64
	Version int64
	Note    string
	Actor   string
}

// ResetInput resubmits a rejected amendment.
type ResetInput struct {
	ID      int64
	Version int64
	Actor   string
}

// Open creates an amendment against a contract. Step 1 is marked on creation.
func (s *Service) Open(ctx context.Context, in OpenInput) (Amendment, error) {
	if err := in.validate(); err != nil {
		return Amendment{}, err
	}
	if s.contracts != nil {
		ok, err := s.contracts.Exists(ctx, in.ContractID)
		if err != nil {
			return Amendment{}, err
		}
		if !ok {
			return Amendment{}, fmt.Errorf("%w: contract %d not found", ErrValidation, in.ContractID)
		}
	}
	entryDate := strings.TrimSpace(in.EntryDate)
	if entryDate == "" {
		entryDate = calendar.FromTime(s.now()).String()
	}
	a := Amendment{
		ContractID:   in.ContractID,
		Number:       strings.TrimSpace(in.Number),
		Type:         in.Type,
		Duration:     in.Duration,
		DurationUnit: in.DurationUnit,
		Description:  in.Description,
		EntryDate:    entryDate,
		Checklist:    Checklist{ProcessOpened: true},
	}
	if a.Type == TypeValue {
		a.DurationUnit = ""
	}
	a.recompute()
	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return Amendment{}, err
	}
	s.afterWrite(ctx, in.Actor, "AMENDMENT_OPEN", created, map[string]any{"contract_id": created.ContractID, "type": created.Type})
	return created, nil
}

// Get returns a single amendment.
func (s *Service) Get(ctx context.Context, id int64) (Amendment, error) {
	if id <= 0 {
		return Amendment{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// ListByContract returns the amendments of one contract.
func (s *Service) ListByContract(ctx context.Context, contractID int64) ([]Amendment, error) {
	return s.repo.ListByContract(ctx, contractID)
}

// UpdateChecklist applies a partial checklist update.
func (s *Service) UpdateChecklist(ctx context.Context, in ChecklistInput) (Amendment, error) {
	if in.Patch.Empty() {
		return Amendment{}, fmt.Errorf("%w: empty checklist update", ErrValidation)
	}
	return s.mutate(ctx, in.ID, in.Version, in.Actor, "AMENDMENT_CHECKLIST", func(a Amendment) (Amendment, error) {
		return UpdateChecklist(a, in.Patch)
	})
}

// SetNote replaces the working legal note.
func (s *Service) SetNote(ctx context.Context, in NoteInput) (Amendment, error) {
	return s.mutate(ctx, in.ID, in.Version, in.Actor, "AMENDMENT_NOTE", func(a Amendment) (Amendment, error) {
		out := a.clone()
		out.Note = in.Note
		return out, nil
	})
}

// RecordDecision stores a legal ruling.
func (s *Service) RecordDecision(ctx context.Context, in DecisionInput) (Amendment, error) {
	return s.mutate(ctx, in.ID, in.Version, in.Actor, "AMENDMENT_DECISION", func(a Amendment) (Amendment, error) {
		note := in.Note
		if strings.TrimSpace(note) == "" {
			note = a.Note
		}
		return RecordLegalDecision(a, in.Decision, note, actorOrSystem(in.Actor), s.now())
	})
}

// Comment appends a non-ruling history entry.
func (s *Service) Comment(ctx context.Context, in CommentInput) (Amendment, error) {
	return s.mutate(ctx, in.ID, in.Version, in.Actor, "AMENDMENT_COMMENT", func(a Amendment) (Amendment, error) {
		return AddComment(a, in.Note, actorOrSystem(in.Actor), s.now())
	})
}

// Reset resubmits a rejected amendment for legal review.
func (s *Service) Reset(ctx context.Context, in ResetInput) (Amendment, error) {
	return s.mutate(ctx, in.ID, in.Version, in.Actor, "AMENDMENT_RESET", func(a Amendment) (Amendment, error) {
		return ResetRejected(a, actorOrSystem(in.Actor), s.now())
	})
}

func (s *Service) mutate(ctx context.Context, id, version int64, actor, action string, fn func(Amendment) (Amendment, error)) (Amendment, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return Amendment{}, err
	}
	if version != current.Version {
		return Amendment{}, ErrVersionConflict
	}
	next, err := fn(current)
	if err != nil {
		return Amendment{}, err
	}
	next.recompute()
	saved, err := s.repo.Update(ctx, next, version)
	if err != nil {
		return Amendment{}, err
	}
	s.afterWrite(ctx, actor, action, saved, map[string]any{"status": saved.Status, "version": saved.Version})
	return saved, nil
}

func (s *Service) afterWrite(ctx context.Context, actor, action string, a Amendment, meta map[string]any) {
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    actorOrSystem(actor),
			Action:   action,
			Entity:   "amendment",
			EntityID: strconv.FormatInt(a.ID, 10),
			Meta:     meta,
			At:       s.now(),
		})
		if err != nil {
			s.logger.Warn("record amendment audit", slog.Any("error", err), slog.Int64("id", a.ID))
		}
	}
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("invalidate contract cache", slog.Any("error", err))
		}
	}
}

func (in OpenInput) validate() error {
	if in.ContractID <= 0 {
		return fmt.Errorf("%w: contract id required", ErrValidation)
	}
	switch in.Type {
	case TypeTerm:
		switch in.DurationUnit {
		case calendar.UnitDay, calendar.UnitMonth, calendar.UnitYear:
		default:
			return fmt.Errorf("%w: term amendments need a day, month or year unit", ErrValidation)
		}
	case TypeValue:
	default:
		return fmt.Errorf("%w: unknown amendment type %q", ErrValidation, in.Type)
	}
	return nil
}

func actorOrSystem(actor string) string {
	if strings.TrimSpace(actor) == "" {
		return shared.SystemActor
	}
	return actor
}
