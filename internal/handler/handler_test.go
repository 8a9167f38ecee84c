package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"affiliate/internal/middleware"
	"affiliate/internal/model"
	"affiliate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	testSecret  = []byte("test-secret")
	testUser    = uuid.MustParse("0b6c7b0e-3f52-4c1e-9a55-3cf0f0d6a001")
	testWS      = uuid.MustParse("0b6c7b0e-3f52-4c1e-9a55-3cf0f0d6a002")
	testProgram = uuid.MustParse("0b6c7b0e-3f52-4c1e-9a55-3cf0f0d6a003")
)

type memberOf uuid.UUID

func (m memberOf) IsMember(_ context.Context, workspaceID, _ uuid.UUID) (bool, error) {
	return workspaceID == uuid.UUID(m), nil
}

type stubApprovals struct {
	approveErr error
	gotActor   service.Actor
	gotReq     service.ApprovePartnerRequest
	rejected   int
}

func (s *stubApprovals) Approve(_ context.Context, actor service.Actor, req service.ApprovePartnerRequest) (service.ActionResult, error) {
	s.gotActor, s.gotReq = actor, req
	if s.approveErr != nil {
		return service.ActionResult{}, s.approveErr
	}
	return service.ActionResult{OK: true}, nil
}

func (s *stubApprovals) Reject(context.Context, service.Actor, service.RejectPartnerRequest) (service.ActionResult, error) {
	s.rejected++
	return service.ActionResult{OK: true}, nil
}

type stubPartners struct {
	service.PartnerService
	list  []service.EnrolledPartnerResponse
	total int64
	got   service.PartnerFilter
}

func (s *stubPartners) ListPartners(_ context.Context, _ service.Actor, f service.PartnerFilter) ([]service.EnrolledPartnerResponse, int64, error) {
	s.got = f
	return s.list, s.total, nil
}

type stubLinks struct {
	service.LinkService
	err      error
	gotLimit int
}

func (s *stubLinks) CreateLink(_ context.Context, _ service.Actor, req service.CreateLinkRequest) (service.LinkResponse, error) {
	if s.err != nil {
		return service.LinkResponse{}, s.err
	}
	return service.LinkResponse{ID: uuid.New(), Domain: req.Domain, Key: req.Key, URL: req.URL}, nil
}

func (s *stubLinks) ListPartnerLinks(_ context.Context, _ service.Actor, _, _ string, limit int) ([]service.LinkResponse, error) {
	s.gotLimit = limit
	return []service.LinkResponse{}, nil
}

type stubPayouts struct{ gotLimit int }

func (s *stubPayouts) ListPartnerPayouts(_ context.Context, _ service.Actor, _, _ string, limit int) ([]service.PayoutResponse, error) {
	s.gotLimit = limit
	return []service.PayoutResponse{}, nil
}

type stubStats struct{ err error }

func (s stubStats) GetProgramStatistics(_ context.Context, _ service.Actor, programID string) (model.ProgramStatistics, error) {
	if s.err != nil {
		return model.ProgramStatistics{}, s.err
	}
	return model.ProgramStatistics{
		ProgramID:     uuid.MustParse(programID),
		TotalPartners: 4,
		StatusCounts:  map[string]int64{"pending": 1, "approved": 3},
	}, nil
}

type fixture struct {
	router    *gin.Engine
	approvals *stubApprovals
	partners  *stubPartners
	links     *stubLinks
	payouts   *stubPayouts
	stats     *stubStats
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()
	auth := middleware.NewAuth(testSecret, memberOf(testWS), false, log)

	f := &fixture{
		router:    gin.New(),
		approvals: &stubApprovals{},
		partners:  &stubPartners{},
		links:     &stubLinks{},
		payouts:   &stubPayouts{},
		stats:     &stubStats{},
	}
	root := f.router.Group("")
	NewPartnerHandler(f.partners, f.approvals, log).RegisterRoutes(root, auth)
	NewProgramHandler(f.partners, f.payouts, f.links, log).RegisterRoutes(root, auth)
	NewLinkHandler(f.links, log).RegisterRoutes(root, auth)
	NewStatisticsHandler(f.stats, log).RegisterRoutes(root, auth)
	return f
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Meta   *struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
	} `json:"meta"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": testUser.String(), "name": "Grace"}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return w.Code, env
}

func wsQuery() string { return "?workspaceId=" + testWS.String() }

func TestApprovePartner(t *testing.T) {
	f := newFixture(t)
	body := map[string]string{"programId": testProgram.String(), "partnerId": uuid.NewString(), "linkId": uuid.NewString()}

	status, env := f.do(t, http.MethodPost, "/api/partners/approve"+wsQuery(), body)
	if status != http.StatusOK || string(env.Data) != `{"ok":true}` {
		t.Fatalf("status = %d, data = %s", status, env.Data)
	}
	if f.approvals.gotActor.UserID != testUser || f.approvals.gotActor.WorkspaceID != testWS || f.approvals.gotActor.Name != "Grace" {
		t.Fatalf("actor = %+v", f.approvals.gotActor)
	}
	if f.approvals.gotReq.LinkID != body["linkId"] {
		t.Fatalf("linkId = %q, want %q", f.approvals.gotReq.LinkID, body["linkId"])
	}
}

func TestApprovePartnerErrors(t *testing.T) {
	body := map[string]string{"programId": testProgram.String(), "partnerId": uuid.NewString(), "linkId": uuid.NewString()}
	tests := []struct {
		name    string
		err     error
		body    interface{}
		status  int
		message string
	}{
		{"conflict", service.Conflict("Link is already associated with another partner."), body,
			http.StatusConflict, "Link is already associated with another partner."},
		{"not found", service.NotFound("Partner enrollment not found."), body,
			http.StatusNotFound, "Partner enrollment not found."},
		{"downstream", errors.New("pq: connection reset"), body,
			http.StatusInternalServerError, "Failed to approve partner."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.approvals.approveErr = tt.err
			status, env := f.do(t, http.MethodPost, "/api/partners/approve"+wsQuery(), tt.body)
			if status != tt.status || env.Error == nil || env.Error.Message != tt.message {
				t.Fatalf("status = %d, error = %+v, want %d %q", status, env.Error, tt.status, tt.message)
			}
		})
	}
}

func TestApprovePartnerRejectsMissingLinkBeforeService(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, http.MethodPost, "/api/partners/approve"+wsQuery(),
		map[string]string{"programId": testProgram.String(), "partnerId": uuid.NewString()})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if f.approvals.gotReq.PartnerID != "" {
		t.Fatal("service must not be called for an invalid payload")
	}
}

func TestNonMemberIsForbidden(t *testing.T) {
	f := newFixture(t)
	status, _ := f.do(t, http.MethodPost, "/api/partners/reject?workspaceId="+uuid.NewString(),
		map[string]string{"programId": testProgram.String(), "partnerId": uuid.NewString()})
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if f.approvals.rejected != 0 {
		t.Fatal("reject ran for a non-member")
	}
}

func TestListPartnersPaginates(t *testing.T) {
	f := newFixture(t)
	f.partners.list = []service.EnrolledPartnerResponse{{Name: "Ada", Status: "pending"}}
	f.partners.total = 21

	status, env := f.do(t, http.MethodGet, "/api/partners"+wsQuery()+"&programId="+testProgram.String()+"&status=pending&page=2&limit=5", nil)
	if status != http.StatusOK || env.Meta == nil {
		t.Fatalf("status = %d, meta = %+v", status, env.Meta)
	}
	if env.Meta.Page != 2 || env.Meta.Limit != 5 || env.Meta.Total != 21 {
		t.Fatalf("meta = %+v", *env.Meta)
	}
	if f.partners.got.Status != "pending" || f.partners.got.ProgramID != testProgram.String() {
		t.Fatalf("filter = %+v", f.partners.got)
	}
}

func TestCreateLinkDuplicate(t *testing.T) {
	f := newFixture(t)
	f.links.err = service.Conflict("Duplicate key: This short link already exists.")

	status, env := f.do(t, http.MethodPost, "/api/links"+wsQuery(),
		map[string]string{"domain": "acme.link", "key": "ada", "url": "https://acme.com"})
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want 409", status)
	}
	if env.Error == nil || env.Error.Message != "Duplicate key: This short link already exists." {
		t.Fatalf("error = %+v", env.Error)
	}
}

func TestCreateLink(t *testing.T) {
	f := newFixture(t)
	status, env := f.do(t, http.MethodPost, "/api/links"+wsQuery(),
		map[string]string{"domain": "acme.link", "key": "ada", "url": "https://acme.com"})
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want 201", status)
	}
	var link service.LinkResponse
	if err := json.Unmarshal(env.Data, &link); err != nil || link.Key != "ada" {
		t.Fatalf("link = %+v, err = %v", link, err)
	}
}

func TestSheetReadsAreBounded(t *testing.T) {
	f := newFixture(t)
	base := "/api/programs/" + testProgram.String()

	f.do(t, http.MethodGet, base+"/payouts"+wsQuery()+"&partnerId=p&pageSize=500", nil)
	if f.payouts.gotLimit != 10 {
		t.Fatalf("payout limit = %d, want 10", f.payouts.gotLimit)
	}
	f.do(t, http.MethodGet, base+"/links"+wsQuery()+"&partnerId=p&pageSize=3", nil)
	if f.links.gotLimit != 3 {
		t.Fatalf("link limit = %d, want 3", f.links.gotLimit)
	}
}

func TestProgramStatistics(t *testing.T) {
	f := newFixture(t)
	status, env := f.do(t, http.MethodGet, "/api/programs/"+testProgram.String()+"/statistics"+wsQuery(), nil)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	var stats model.ProgramStatistics
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalPartners != 4 || stats.StatusCounts["approved"] != 3 {
		t.Fatalf("stats = %+v", stats)
	}

	f.stats.err = errors.New("db down")
	status, env = f.do(t, http.MethodGet, "/api/programs/"+testProgram.String()+"/statistics"+wsQuery(), nil)
	if status != http.StatusInternalServerError || env.Error == nil || env.Error.Message != "Failed to load program statistics." {
		t.Fatalf("status = %d, error = %+v", status, env.Error)
	}
}
