package contracts

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/gestao-municipal/gestao/internal/amendments"
	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/shared"
)

type memoryContracts struct {
	items  map[int64]Contract
	nextID int64
	lists  int
}

func newMemoryContracts() *memoryContracts {
	return &memoryContracts{items: make(map[int64]Contract)}
}

func (r *memoryContracts) Get(ctx context.Context, id int64) (Contract, error) {
	c, ok := r.items[id]
	if !ok {
		return Contract{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryContracts) Exists(ctx context.Context, id int64) (bool, error) {
	_, ok := r.items[id]
	return ok, nil
}

func (r *memoryContracts) List(ctx context.Context, search string) ([]Contract, error) {
	r.lists++
	var out []Contract
	for _, c := range r.items {
		if search == "" || strings.Contains(strings.ToLower(c.Code+" "+c.Object+" "+c.Supplier), strings.ToLower(search)) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *memoryContracts) Create(ctx context.Context, c Contract) (Contract, error) {
	for _, existing := range r.items {
		if existing.Code == c.Code {
			return Contract{}, ErrDuplicateCode
		}
	}
	r.nextID++
	c.ID = r.nextID
	r.items[c.ID] = c
	return c, nil
}

func (r *memoryContracts) Update(ctx context.Context, c Contract) (Contract, error) {
	if _, ok := r.items[c.ID]; !ok {
		return Contract{}, ErrNotFound
	}
	r.items[c.ID] = c
	return c, nil
}

func (r *memoryContracts) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

type memoryAmendments []amendments.Amendment

func (m memoryAmendments) ListByContract(ctx context.Context, contractID int64) ([]amendments.Amendment, error) {
	var out []amendments.Amendment
	for _, a := range m {
		if a.ContractID == contractID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m memoryAmendments) ListByContracts(ctx context.Context, ids []int64) ([]amendments.Amendment, error) {
	var out []amendments.Amendment
	for _, id := range ids {
		part, _ := m.ListByContract(ctx, id)
		out = append(out, part...)
	}
	return out, nil
}

type recordingAudit struct {
	actions []string
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.actions = append(a.actions, log.Action)
	return nil
}

var today = calendar.NewDate(1, 6, 2024)

func newTestService(t *testing.T, cache SummaryCache, as memoryAmendments) (*Service, *memoryContracts, *recordingAudit) {
	t.Helper()
	repo := newMemoryContracts()
	audit := &recordingAudit{}
	engine := NewEngine(calendar.PolicyLenient, calendar.FixedClock(today), 30)
	return NewService(repo, as, engine, cache, audit, nil), repo, audit
}

func seed(t *testing.T, svc *Service, code string, end calendar.Date) View {
	t.Helper()
	v, err := svc.Create(context.Background(), Input{Code: code, Object: "Coleta de resíduos", BaseEndDate: end, Value: 1000})
	require.NoError(t, err)
	return v
}

func TestServiceCreateAndGet(t *testing.T) {
	as := memoryAmendments{
		{ID: 1, ContractID: 1, Type: amendments.TypeTerm, Duration: 2, DurationUnit: calendar.UnitMonth, Checklist: executed},
		{ID: 2, ContractID: 1, Type: amendments.TypeTerm, Duration: 1, DurationUnit: calendar.UnitYear, Checklist: amendments.Checklist{SentToLegal: true}},
	}
	svc, _, audit := newTestService(t, nil, as)
	ctx := context.Background()

	created := seed(t, svc, " CT-10/2024 ", calendar.NewDate(20, 6, 2024))
	require.Equal(t, "CT-10/2024", created.Code)
	require.Equal(t, StatusWarning, created.Status)
	require.Equal(t, 19, created.DaysRemaining)

	v, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, calendar.NewDate(20, 8, 2024), v.EffectiveEndDate)
	require.Equal(t, StatusActive, v.Status)
	require.NotNil(t, v.ActiveAmendment)
	require.Equal(t, BadgeInLegalReview, v.ActiveAmendment.Kind)
	require.Equal(t, []string{"CONTRACT_CREATE"}, audit.actions)

	_, err = svc.Get(ctx, 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceCreateValidation(t *testing.T) {
	svc, _, _ := newTestService(t, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Input{Code: "  ", BaseEndDate: today})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, Input{Code: "X", BaseEndDate: calendar.Date{Day: 30, Month: 2, Year: 2024}})
	require.ErrorIs(t, err, ErrValidation)
	require.ErrorIs(t, err, calendar.ErrMalformedDate)

	seed(t, svc, "X", today)
	_, err = svc.Create(ctx, Input{Code: "X", BaseEndDate: today})
	require.ErrorIs(t, err, ErrDuplicateCode)
}

func TestServiceManualStatusAndFilter(t *testing.T) {
	svc, _, audit := newTestService(t, nil, nil)
	ctx := context.Background()

	expired := seed(t, svc, "A", calendar.NewDate(1, 1, 2023))
	seed(t, svc, "B", calendar.NewDate(1, 1, 2030))
	warning := seed(t, svc, "C", calendar.NewDate(10, 6, 2024))

	v, err := svc.SetManualStatus(ctx, expired.ID, ManualExecuted, "ana")
	require.NoError(t, err)
	require.Equal(t, StatusExecuted, v.Status)
	require.Zero(t, v.DaysRemaining)

	_, err = svc.SetManualStatus(ctx, expired.ID, "paused", "ana")
	require.ErrorIs(t, err, ErrValidation)

	list, err := svc.List(ctx, ListFilter{Status: StatusWarning})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, warning.ID, list[0].ID)

	list, err = svc.List(ctx, ListFilter{Search: "b"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	updated, err := svc.Update(ctx, expired.ID, Input{Code: "A2", BaseEndDate: calendar.NewDate(1, 1, 2023)})
	require.NoError(t, err)
	require.Equal(t, StatusExecuted, updated.Status)
	require.Equal(t, "A2", updated.Code)

	v, err = svc.SetManualStatus(ctx, expired.ID, ManualNone, "ana")
	require.NoError(t, err)
	require.Equal(t, StatusExpired, v.Status)

	require.NoError(t, svc.Delete(ctx, warning.ID, "ana"))
	require.ErrorIs(t, svc.Delete(ctx, warning.ID, "ana"), ErrNotFound)
	require.Contains(t, audit.actions, "CONTRACT_DELETE")
}

func TestServiceSummaryCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Minute)

	svc, repo, _ := newTestService(t, cache, nil)
	ctx := context.Background()
	seed(t, svc, "A", calendar.NewDate(1, 1, 2023))
	seed(t, svc, "B", calendar.NewDate(20, 6, 2024))
	seed(t, svc, "C", calendar.NewDate(5, 6, 2024))

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Total)
	require.Equal(t, 1, summary.ByStatus[StatusExpired])
	require.Equal(t, 2, summary.ByStatus[StatusWarning])
	require.Equal(t, 0, summary.ByStatus[StatusRescinded])
	require.Len(t, summary.ExpiringSoon, 2)
	require.Equal(t, "C", summary.ExpiringSoon[0].Code)

	lists := repo.lists
	_, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, lists, repo.lists)

	seed(t, svc, "D", calendar.NewDate(1, 1, 2030))
	summary, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Total)
	require.Equal(t, lists+1, repo.lists)
}
