package service

import (
	"context"
	"errors"
	"testing"

	"affiliate/internal/model"

	"github.com/google/uuid"
)

type fakeStats struct {
	counts []model.StatusCount
	top    []model.PartnerRanking
	sales  int64
	paid   int64
	err    error
}

func (f fakeStats) CountByStatus(context.Context, uuid.UUID) ([]model.StatusCount, error) {
	return f.counts, f.err
}

func (f fakeStats) TopPartners(_ context.Context, _ uuid.UUID, limit int) ([]model.PartnerRanking, error) {
	if len(f.top) > limit {
		return f.top[:limit], nil
	}
	return f.top, nil
}

func (f fakeStats) SaleAmount(context.Context, uuid.UUID) (int64, error) { return f.sales, nil }
func (f fakeStats) PaidOut(context.Context, uuid.UUID) (int64, error)    { return f.paid, nil }

func TestGetProgramStatistics(t *testing.T) {
	store := newMemStore()
	actor := Actor{UserID: uuid.New(), WorkspaceID: uuid.New()}
	program := model.Program{ID: uuid.New(), WorkspaceID: actor.WorkspaceID}
	store.programs[program.ID] = program

	stats := fakeStats{
		counts: []model.StatusCount{
			{Status: model.EnrollmentPending, Count: 3},
			{Status: model.EnrollmentApproved, Count: 7},
		},
		top:   []model.PartnerRanking{{PartnerID: uuid.New(), Name: "Ada", SaleAmount: 9000}},
		sales: 12000,
		paid:  4000,
	}
	svc := NewStatisticsService(memPrograms{store}, stats)

	got, err := svc.GetProgramStatistics(context.Background(), actor, program.ID.String())
	if err != nil {
		t.Fatalf("GetProgramStatistics() error = %v", err)
	}
	if got.TotalPartners != 10 {
		t.Errorf("TotalPartners = %d, want 10", got.TotalPartners)
	}
	if got.StatusCounts[model.EnrollmentBanned] != 0 || len(got.StatusCounts) != 6 {
		t.Errorf("StatusCounts = %v", got.StatusCounts)
	}
	if got.StatusCounts[model.EnrollmentApproved] != 7 {
		t.Errorf("approved = %d", got.StatusCounts[model.EnrollmentApproved])
	}
	if got.TotalSaleAmount != 12000 || got.TotalPaidOut != 4000 || len(got.TopPartners) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestGetProgramStatisticsOtherWorkspace(t *testing.T) {
	store := newMemStore()
	actor := Actor{UserID: uuid.New(), WorkspaceID: uuid.New()}
	program := model.Program{ID: uuid.New(), WorkspaceID: uuid.New()}
	store.programs[program.ID] = program

	svc := NewStatisticsService(memPrograms{store}, fakeStats{})
	_, err := svc.GetProgramStatistics(context.Background(), actor, program.ID.String())

	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Kind != ErrNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestGetProgramStatisticsQueryFailure(t *testing.T) {
	store := newMemStore()
	actor := Actor{UserID: uuid.New(), WorkspaceID: uuid.New()}
	program := model.Program{ID: uuid.New(), WorkspaceID: actor.WorkspaceID}
	store.programs[program.ID] = program

	svc := NewStatisticsService(memPrograms{store}, fakeStats{err: errors.New("db down")})
	got, err := svc.GetProgramStatistics(context.Background(), actor, program.ID.String())
	if err == nil {
		t.Fatalf("expected error, got %+v", got)
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		t.Fatalf("downstream failure surfaced as %v", appErr.Kind)
	}
}
