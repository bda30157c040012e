package contracts

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gestao-municipal/gestao/internal/amendments"
	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/shared"
)

// RepositoryPort describes contract persistence used by Service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Contract, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, search string) ([]Contract, error)
	Create(ctx context.Context, c Contract) (Contract, error)
	Update(ctx context.Context, c Contract) (Contract, error)
	Delete(ctx context.Context, id int64) error
}

// AmendmentSource loads amendments for folding.
type AmendmentSource interface {
	ListByContract(ctx context.Context, contractID int64) ([]amendments.Amendment, error)
	ListByContracts(ctx context.Context, contractIDs []int64) ([]amendments.Amendment, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// SummaryCache stores the dashboard summary.
type SummaryCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// Service orchestrates contract reads and writes.
type Service struct {
	repo       RepositoryPort
	amendments AmendmentSource
	engine     Engine
	cache      SummaryCache
	audit      AuditPort
	logger     *slog.Logger
	group      singleflight.Group
}

// NewService constructs the contract service. cache and audit may be nil.
func NewService(repo RepositoryPort, source AmendmentSource, engine Engine, cache SummaryCache, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, amendments: source, engine: engine, cache: cache, audit: audit, logger: logger}
}

// Engine exposes the derivation settings.
func (s *Service) Engine() Engine {
	return s.engine
}

// ListFilter narrows contract listings.
type ListFilter struct {
	Status Status
	Search string
}

// Input carries editable contract fields.
type Input struct {
	Code        string
	Object      string
	Supplier    string
	Value       float64
	BaseEndDate calendar.Date
	Actor       string
}

// Exists reports whether a contract exists.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Get returns the derived view of one contract.
func (s *Service) Get(ctx context.Context, id int64) (View, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	as, err := s.amendments.ListByContract(ctx, id)
	if err != nil {
		return View{}, err
	}
	return s.engine.Build(c, as)
}

// List returns derived views, filtered after derivation because status is not stored.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]View, error) {
	views, err := s.views(ctx, filter.Search)
	if err != nil {
		return nil, err
	}
	if filter.Status == "" {
		return views, nil
	}
	out := views[:0]
	for _, v := range views {
		if v.Status == filter.Status {
			out = append(out, v)
		}
	}
	return out, nil
}

// Views returns every derived view without caching.
func (s *Service) Views(ctx context.Context) ([]View, error) {
	return s.views(ctx, "")
}

// Summary returns dashboard counts, cached per version and day.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	clock := s.engine.Clock
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	today := clock.Today().ISO()
	result, err, _ := s.group.Do("summary:"+today, func() (any, error) {
		if s.cache == nil {
			return s.buildSummary(ctx)
		}
		key, err := s.cache.BuildKey(ctx, "summary", today)
		if err != nil {
			s.logger.Warn("contract cache key", slog.Any("error", err))
			return s.buildSummary(ctx)
		}
		var out Summary
		err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.buildSummary(ctx)
		})
		return out, err
	})
	if err != nil {
		return Summary{}, err
	}
	return result.(Summary), nil
}

// Create registers a contract.
func (s *Service) Create(ctx context.Context, in Input) (View, error) {
	c, err := in.contract()
	if err != nil {
		return View{}, err
	}
	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return View{}, err
	}
	s.afterWrite(ctx, in.Actor, "CONTRACT_CREATE", created.ID, map[string]any{"code": created.Code})
	return s.engine.Build(created, nil)
}

// Update rewrites editable fields, keeping the manual status.
func (s *Service) Update(ctx context.Context, id int64, in Input) (View, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	next, err := in.contract()
	if err != nil {
		return View{}, err
	}
	next.ID = current.ID
	next.ManualStatus = current.ManualStatus
	if _, err := s.repo.Update(ctx, next); err != nil {
		return View{}, err
	}
	s.afterWrite(ctx, in.Actor, "CONTRACT_UPDATE", id, map[string]any{"code": next.Code})
	return s.Get(ctx, id)
}

// SetManualStatus sets or clears the operator override.
func (s *Service) SetManualStatus(ctx context.Context, id int64, status ManualStatus, actor string) (View, error) {
	if !status.Valid() {
		return View{}, fmt.Errorf("%w: unknown manual status %q", ErrValidation, status)
	}
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	previous := c.ManualStatus
	c.ManualStatus = status
	if _, err := s.repo.Update(ctx, c); err != nil {
		return View{}, err
	}
	s.afterWrite(ctx, actor, "CONTRACT_MANUAL_STATUS", id, map[string]any{"from": previous, "to": status})
	return s.Get(ctx, id)
}

// Delete removes a contract and its amendments.
func (s *Service) Delete(ctx context.Context, id int64, actor string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.afterWrite(ctx, actor, "CONTRACT_DELETE", id, nil)
	return nil
}

// Bump invalidates cached summaries; amendment writes call it.
func (s *Service) Bump(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Bump(ctx)
}

func (s *Service) views(ctx context.Context, search string) ([]View, error) {
	cs, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	as, err := s.amendments.ListByContracts(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.engine.BuildAll(cs, as)
}

func (s *Service) buildSummary(ctx context.Context) (Summary, error) {
	views, err := s.views(ctx, "")
	if err != nil {
		return Summary{}, err
	}
	out := Summary{Total: len(views), ByStatus: make(map[Status]int, len(AllStatuses)), ExpiringSoon: []View{}}
	for _, st := range AllStatuses {
		out.ByStatus[st] = 0
	}
	for _, v := range views {
		out.ByStatus[v.Status]++
		if v.Status == StatusWarning {
			out.ExpiringSoon = append(out.ExpiringSoon, v)
		}
	}
	sort.SliceStable(out.ExpiringSoon, func(i, j int) bool {
		return out.ExpiringSoon[i].DaysRemaining < out.ExpiringSoon[j].DaysRemaining
	})
	return out, nil
}

func (s *Service) afterWrite(ctx context.Context, actor, action string, id int64, meta map[string]any) {
	if s.audit != nil {
		if strings.TrimSpace(actor) == "" {
			actor = shared.SystemActor
		}
		err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   action,
			Entity:   "contract",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     meta,
			At:       time.Now(),
		})
		if err != nil {
			s.logger.Warn("record contract audit", slog.Any("error", err), slog.Int64("id", id))
		}
	}
	if err := s.Bump(ctx); err != nil {
		s.logger.Warn("invalidate contract cache", slog.Any("error", err))
	}
}

func (in Input) contract() (Contract, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return Contract{}, fmt.Errorf("%w: code required", ErrValidation)
	}
	if !in.BaseEndDate.Valid() {
		return Contract{}, fmt.Errorf("%w: base end date %w", ErrValidation, calendar.ErrMalformedDate)
	}
	return Contract{
		Code:        code,
		Object:      strings.TrimSpace(in.Object),
		Supplier:    strings.TrimSpace(in.Supplier),
		Value:       in.Value,
		BaseEndDate: in.BaseEndDate,
	}, nil
}
