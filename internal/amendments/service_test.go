package amendments

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gestao-municipal/gestao/internal/calendar"
	"github.com/gestao-municipal/gestao/internal/shared"
)

type memoryRepo struct {
	items  map[int64]Amendment
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Amendment)}
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Amendment, error) {
	a, ok := r.items[id]
	if !ok {
		return Amendment{}, ErrNotFound
	}
	return a.clone(), nil
}

func (r *memoryRepo) ListByContract(ctx context.Context, contractID int64) ([]Amendment, error) {
	var out []Amendment
	for _, a := range r.items {
		if a.ContractID == contractID {
			out = append(out, a.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) Create(ctx context.Context, a Amendment) (Amendment, error) {
	r.nextID++
	a.ID = r.nextID
	a.Version = 1
	r.items[a.ID] = a.clone()
	return a, nil
}

func (r *memoryRepo) Update(ctx context.Context, a Amendment, expectedVersion int64) (Amendment, error) {
	stored, ok := r.items[a.ID]
	if !ok {
		return Amendment{}, ErrNotFound
	}
	if stored.Version != expectedVersion {
		return Amendment{}, ErrVersionConflict
	}
	a.Version = expectedVersion + 1
	r.items[a.ID] = a.clone()
	return a, nil
}

type stubContracts map[int64]bool

func (s stubContracts) Exists(ctx context.Context, id int64) (bool, error) {
	return s[id], nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type countingInvalidator struct {
	bumps int
	err   error
}

func (c *countingInvalidator) Bump(ctx context.Context) error {
	c.bumps++
	return c.err
}

type fixture struct {
	svc   *Service
	repo  *memoryRepo
	audit *recordingAudit
	inv   *countingInvalidator
}

func newFixture() fixture {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	inv := &countingInvalidator{}
	svc := NewService(repo, stubContracts{10: true}, audit, inv, nil)
	svc.WithNow(func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) })
	return fixture{svc: svc, repo: repo, audit: audit, inv: inv}
}

func (f fixture) open(t *testing.T) Amendment {
	t.Helper()
	a, err := f.svc.Open(context.Background(), OpenInput{
		ContractID:   10,
		Number:       " 01/2024 ",
		Type:         TypeTerm,
		Duration:     12,
		DurationUnit: calendar.UnitMonth,
		Actor:        "ana",
	})
	require.NoError(t, err)
	return a
}

func TestServiceOpen(t *testing.T) {
	f := newFixture()
	a := f.open(t)

	require.Equal(t, int64(1), a.ID)
	require.Equal(t, int64(1), a.Version)
	require.Equal(t, "01/2024", a.Number)
	require.Equal(t, "15/03/2024", a.EntryDate)
	require.True(t, a.Checklist.ProcessOpened)
	require.Equal(t, StatusDrafting, a.Status)
	require.Len(t, f.audit.logs, 1)
	require.Equal(t, "AMENDMENT_OPEN", f.audit.logs[0].Action)
	require.Equal(t, "ana", f.audit.logs[0].Actor)
	require.Equal(t, 1, f.inv.bumps)
}

func TestServiceOpenValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{ContractID: 99, Type: TypeValue})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Open(ctx, OpenInput{ContractID: 10, Type: TypeTerm, DurationUnit: "week"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.Open(ctx, OpenInput{ContractID: 10, Type: "other"})
	require.ErrorIs(t, err, ErrValidation)

	a, err := f.svc.Open(ctx, OpenInput{ContractID: 10, Type: TypeValue, Duration: 15000, DurationUnit: calendar.UnitDay})
	require.NoError(t, err)
	require.Empty(t, a.DurationUnit)
}

func TestServiceWorkflow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t)

	a, err := f.svc.UpdateChecklist(ctx, ChecklistInput{ID: a.ID, Version: a.Version, Patch: ChecklistPatch{
		DraftPrepared: boolPtr(true),
		SentToLegal:   boolPtr(true),
	}})
	require.NoError(t, err)
	require.Equal(t, StatusLegalReview, a.Status)

	a, err = f.svc.SetNote(ctx, NoteInput{ID: a.ID, Version: a.Version, Note: "cláusula de reajuste ausente"})
	require.NoError(t, err)

	a, err = f.svc.RecordDecision(ctx, DecisionInput{ID: a.ID, Version: a.Version, Decision: DecisionRejected, Actor: "pgm"})
	require.NoError(t, err)
	require.Equal(t, StatusLegalRejected, a.Status)
	require.Equal(t, "cláusula de reajuste ausente", a.PGMHistory[0].Note)
	require.Equal(t, "pgm", a.PGMHistory[0].Author)
	require.Empty(t, a.Note)

	a, err = f.svc.Comment(ctx, CommentInput{ID: a.ID, Version: a.Version, Note: "enviada nova minuta"})
	require.NoError(t, err)
	require.Equal(t, StatusLegalRejected, a.Status)

	a, err = f.svc.Reset(ctx, ResetInput{ID: a.ID, Version: a.Version})
	require.NoError(t, err)
	require.Equal(t, StatusLegalReview, a.Status)
	require.Len(t, a.PGMHistory, 3)
	require.Equal(t, shared.SystemActor, a.PGMHistory[2].Author)

	a, err = f.svc.RecordDecision(ctx, DecisionInput{ID: a.ID, Version: a.Version, Decision: DecisionApproved, Note: "de acordo"})
	require.NoError(t, err)
	require.Equal(t, StatusReadyForSignature, a.Status)
	require.Equal(t, int64(7), a.Version)

	stored, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.Version, stored.Version)
	require.Len(t, f.audit.logs, 7)
	require.Equal(t, 7, f.inv.bumps)
}

func TestServiceVersionConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t)

	_, err := f.svc.SetNote(ctx, NoteInput{ID: a.ID, Version: a.Version, Note: "first"})
	require.NoError(t, err)

	_, err = f.svc.SetNote(ctx, NoteInput{ID: a.ID, Version: a.Version, Note: "stale"})
	require.ErrorIs(t, err, ErrVersionConflict)

	stored, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "first", stored.Note)
}

func TestServiceErrorsLeaveRecordUntouched(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := f.open(t)

	_, err := f.svc.Reset(ctx, ResetInput{ID: a.ID, Version: a.Version})
	require.ErrorIs(t, err, ErrNotRejected)

	_, err = f.svc.UpdateChecklist(ctx, ChecklistInput{ID: a.ID, Version: a.Version})
	require.ErrorIs(t, err, ErrValidation)

	bad := LegalDecision("archived")
	_, err = f.svc.UpdateChecklist(ctx, ChecklistInput{ID: a.ID, Version: a.Version, Patch: ChecklistPatch{LegalDecision: &bad}})
	require.ErrorIs(t, err, ErrInvalidDecision)

	_, err = f.svc.Get(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)

	stored, err := f.svc.Get(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, a, stored)
	require.Len(t, f.audit.logs, 1)
}

func TestServiceInvalidatorFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.inv.err = errors.New("redis down")
	a := f.open(t)
	require.Equal(t, int64(1), a.ID)
}
