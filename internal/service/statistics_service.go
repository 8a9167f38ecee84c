package service

import (
	"context"
	"fmt"

	"affiliate/internal/model"
	"affiliate/internal/repository"

	"golang.org/x/sync/errgroup"
)

const topPartnersLimit = 5

var enrollmentStatuses = []string{
	model.EnrollmentPending,
	model.EnrollmentApproved,
	model.EnrollmentRejected,
	model.EnrollmentInvited,
	model.EnrollmentDeclined,
	model.EnrollmentBanned,
}

type StatisticsService interface {
	GetProgramStatistics(ctx context.Context, actor Actor, programID string) (model.ProgramStatistics, error)
}

type statisticsService struct {
	programs repository.ProgramRepository
	stats    repository.StatisticsRepository
}

func NewStatisticsService(programs repository.ProgramRepository, stats repository.StatisticsRepository) StatisticsService {
	return &statisticsService{programs: programs, stats: stats}
}

// GetProgramStatistics counts enrollments per status and ranks the program's approved partners
func (s *statisticsService) GetProgramStatistics(ctx context.Context, actor Actor, programID string) (model.ProgramStatistics, error) {
	if err := checkWorkspace(actor, ""); err != nil {
		return model.ProgramStatistics{}, err
	}
	progID, err := parseID(programID, "programId")
	if err != nil {
		return model.ProgramStatistics{}, err
	}
	if _, err := s.programs.FindInWorkspace(ctx, actor.WorkspaceID, progID); err != nil {
		return model.ProgramStatistics{}, fromRepo(err, msgProgramNotFound, "")
	}

	result := model.ProgramStatistics{
		ProgramID:    progID,
		StatusCounts: make(map[string]int64, len(enrollmentStatuses)),
	}
	for _, st := range enrollmentStatuses {
		result.StatusCounts[st] = 0
	}

	var counts []model.StatusCount
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts, err = s.stats.CountByStatus(gctx, progID)
		return err
	})
	g.Go(func() (err error) {
		result.TopPartners, err = s.stats.TopPartners(gctx, progID, topPartnersLimit)
		return err
	})
	g.Go(func() (err error) {
		result.TotalSaleAmount, err = s.stats.SaleAmount(gctx, progID)
		return err
	})
	g.Go(func() (err error) {
		result.TotalPaidOut, err = s.stats.PaidOut(gctx, progID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ProgramStatistics{}, fmt.Errorf("failed to load program statistics: %w", err)
	}

	for _, c := range counts {
		result.StatusCounts[c.Status] = c.Count
		result.TotalPartners += c.Count
	}
	if result.TopPartners == nil {
		result.TopPartners = []model.PartnerRanking{}
	}
	return result, nil
}
