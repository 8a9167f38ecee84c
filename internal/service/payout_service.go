package service

import (
	"context"
	"fmt"
	"time"

	"affiliate/internal/repository"
	"affiliate/pkg/pagination"
)

type PayoutResponse struct {
	ID          string     `json:"id"`
	PeriodStart *time.Time `json:"periodStart"`
	PeriodEnd   *time.Time `json:"periodEnd"`
	Amount      int64      `json:"amount"`
	Currency    string     `json:"currency"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type PayoutService interface {
	ListPartnerPayouts(ctx context.Context, actor Actor, programID, partnerID string, limit int) ([]PayoutResponse, error)
}

type payoutService struct {
	programs repository.ProgramRepository
	payouts  repository.PayoutRepository
}

func NewPayoutService(programs repository.ProgramRepository, payouts repository.PayoutRepository) PayoutService {
	return &payoutService{programs: programs, payouts: payouts}
}

// ListPartnerPayouts returns the newest payouts of a partner, at most SheetMaxItems
func (s *payoutService) ListPartnerPayouts(ctx context.Context, actor Actor, programID, partnerID string, limit int) ([]PayoutResponse, error) {
	if err := checkWorkspace(actor, ""); err != nil {
		return nil, err
	}
	progID, err := parseID(programID, "programId")
	if err != nil {
		return nil, err
	}
	pid, err := parseID(partnerID, "partnerId")
	if err != nil {
		return nil, err
	}
	if _, err := s.programs.FindInWorkspace(ctx, actor.WorkspaceID, progID); err != nil {
		return nil, fromRepo(err, msgProgramNotFound, "")
	}

	limit = pagination.BoundSheet(limit)
	payouts, err := s.payouts.ListByPartner(ctx, progID, pid, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}

	res := make([]PayoutResponse, 0, len(payouts))
	for _, p := range payouts {
		res = append(res, PayoutResponse{
			ID:          p.ID.String(),
			PeriodStart: p.PeriodStart,
			PeriodEnd:   p.PeriodEnd,
			Amount:      p.Amount,
			Currency:    p.Currency,
			Status:      p.Status,
			CreatedAt:   p.CreatedAt,
		})
	}
	return res, nil
}
