package service

import (
	"context"
	"fmt"
	"time"

	"affiliate/internal/model"
	"affiliate/internal/repository"
	"affiliate/pkg/pagination"

	"github.com/google/uuid"
)

// --- Partner DTOs ---

type PartnerStats struct {
	Clicks     int64 `json:"clicks"`
	Leads      int64 `json:"leads"`
	Sales      int64 `json:"sales"`
	SaleAmount int64 `json:"saleAmount"`
}

type EnrolledPartnerResponse struct {
	ID               uuid.UUID      `json:"id"`
	Name             string         `json:"name"`
	Email            *string        `json:"email"`
	Image            string         `json:"image"`
	Country          string         `json:"country"`
	Description      *string        `json:"description"`
	Status           string         `json:"status"`
	ProgramID        uuid.UUID      `json:"programId"`
	ApplicationID    *uuid.UUID     `json:"applicationId"`
	PayoutsEnabledAt *time.Time     `json:"payoutsEnabledAt"`
	Website          string         `json:"website"`
	YouTube          string         `json:"youtube"`
	Twitter          string         `json:"twitter"`
	LinkedIn         string         `json:"linkedin"`
	Instagram        string         `json:"instagram"`
	TikTok           string         `json:"tiktok"`
	Links            []LinkResponse `json:"links"`
	Stats            PartnerStats   `json:"stats"`
	CreatedAt        time.Time      `json:"createdAt"`
}

type ApplicationResponse struct {
	ID        uuid.UUID `json:"id"`
	ProgramID uuid.UUID `json:"programId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Proposal  *string   `json:"proposal"`
	Comments  *string   `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

type PartnerFilter struct {
	ProgramID string
	Status    string
	Page      int
	Limit     int
}

// --- Interface ---

type PartnerService interface {
	ListPartners(ctx context.Context, actor Actor, filter PartnerFilter) ([]EnrolledPartnerResponse, int64, error)
	GetPartner(ctx context.Context, actor Actor, programID, partnerID string) (EnrolledPartnerResponse, error)
	GetApplication(ctx context.Context, actor Actor, programID, applicationID string) (ApplicationResponse, error)
}

type partnerService struct {
	programs repository.ProgramRepository
	partners repository.PartnerRepository
	links    repository.LinkRepository
}

func NewPartnerService(programs repository.ProgramRepository, partners repository.PartnerRepository, links repository.LinkRepository) PartnerService {
	return &partnerService{programs: programs, partners: partners, links: links}
}

// --- Implementation ---

func (s *partnerService) ListPartners(ctx context.Context, actor Actor, filter PartnerFilter) ([]EnrolledPartnerResponse, int64, error) {
	program, err := s.program(ctx, actor, filter.ProgramID)
	if err != nil {
		return nil, 0, err
	}

	p := pagination.New(filter.Page, filter.Limit)
	enrollments, total, err := s.partners.ListEnrollments(ctx, program.ID, filter.Status, p.Page, p.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enrollments: %w", err)
	}

	partnerIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		partnerIDs = append(partnerIDs, e.PartnerID)
	}
	links, err := s.links.ListByPartners(ctx, program.ID, partnerIDs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list partner links: %w", err)
	}
	byPartner := make(map[uuid.UUID][]model.Link, len(partnerIDs))
	for _, l := range links {
		if l.PartnerID != nil {
			byPartner[*l.PartnerID] = append(byPartner[*l.PartnerID], l)
		}
	}

	result := make([]EnrolledPartnerResponse, 0, len(enrollments))
	for _, e := range enrollments {
		result = append(result, toEnrolledPartnerResponse(e, byPartner[e.PartnerID]))
	}
	return result, total, nil
}

func (s *partnerService) GetPartner(ctx context.Context, actor Actor, programID, partnerID string) (EnrolledPartnerResponse, error) {
	program, err := s.program(ctx, actor, programID)
	if err != nil {
		return EnrolledPartnerResponse{}, err
	}
	pid, err := parseID(partnerID, "partnerId")
	if err != nil {
		return EnrolledPartnerResponse{}, err
	}

	enrollment, err := s.partners.FindEnrollment(ctx, program.ID, pid)
	if err != nil {
		return EnrolledPartnerResponse{}, fromRepo(err, "Partner not found.", "")
	}
	links, err := s.links.ListByPartner(ctx, program.ID, pid, pagination.SheetMaxItems)
	if err != nil {
		return EnrolledPartnerResponse{}, fmt.Errorf("failed to list partner links: %w", err)
	}
	return toEnrolledPartnerResponse(*enrollment, links), nil
}

func (s *partnerService) GetApplication(ctx context.Context, actor Actor, programID, applicationID string) (ApplicationResponse, error) {
	program, err := s.program(ctx, actor, programID)
	if err != nil {
		return ApplicationResponse{}, err
	}
	aid, err := parseID(applicationID, "applicationId")
	if err != nil {
		return ApplicationResponse{}, err
	}

	app, err := s.partners.FindApplication(ctx, program.ID, aid)
	if err != nil {
		return ApplicationResponse{}, fromRepo(err, "Application not found.", "")
	}
	return ApplicationResponse{
		ID:        app.ID,
		ProgramID: app.ProgramID,
		Name:      app.Name,
		Email:     app.Email,
		Proposal:  app.Proposal,
		Comments:  app.Comments,
		CreatedAt: app.CreatedAt,
	}, nil
}

func (s *partnerService) program(ctx context.Context, actor Actor, programID string) (*model.Program, error) {
	if err := checkWorkspace(actor, ""); err != nil {
		return nil, err
	}
	id, err := parseID(programID, "programId")
	if err != nil {
		return nil, err
	}
	program, err := s.programs.FindInWorkspace(ctx, actor.WorkspaceID, id)
	if err != nil {
		return nil, fromRepo(err, msgProgramNotFound, "")
	}
	return program, nil
}

// --- Helpers ---

func toEnrolledPartnerResponse(e model.ProgramEnrollment, links []model.Link) EnrolledPartnerResponse {
	p := e.Partner
	resp := EnrolledPartnerResponse{
		ID:               p.ID,
		Name:             p.Name,
		Email:            p.Email,
		Image:            p.Image,
		Country:          p.Country,
		Description:      p.Description,
		Status:           e.Status,
		ProgramID:        e.ProgramID,
		ApplicationID:    e.ApplicationID,
		PayoutsEnabledAt: p.PayoutsEnabledAt,
		Website:          p.Website,
		YouTube:          p.YouTube,
		Twitter:          p.Twitter,
		LinkedIn:         p.LinkedIn,
		Instagram:        p.Instagram,
		TikTok:           p.TikTok,
		Links:            make([]LinkResponse, 0, len(links)),
		CreatedAt:        e.CreatedAt,
	}
	for _, l := range links {
		resp.Links = append(resp.Links, toLinkResponse(l))
		resp.Stats.Clicks += l.Clicks
		resp.Stats.Leads += l.Leads
		resp.Stats.Sales += l.Sales
		resp.Stats.SaleAmount += l.SaleAmount
	}
	return resp
}
