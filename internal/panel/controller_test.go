package panel

import (
	"context"
	"errors"
	"testing"
	"time"

	"affiliate/internal/client"
	"affiliate/internal/model"
	"affiliate/internal/service"
	"affiliate/internal/websocket"
	"affiliate/pkg/cachekey"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type approveCall struct{ programID, partnerID, linkID string }

type fakeAPI struct {
	approvals   []approveCall
	rejects     int
	created     []service.CreateLinkRequest
	approveErr  error
	createErr   error
	payouts     []service.PayoutResponse
	payoutCalls int
	application service.ApplicationResponse
}

func (f *fakeAPI) ApprovePartner(_ context.Context, programID, partnerID, linkID string) error {
	f.approvals = append(f.approvals, approveCall{programID, partnerID, linkID})
	return f.approveErr
}

func (f *fakeAPI) RejectPartner(context.Context, string, string) error {
	f.rejects++
	return nil
}

func (f *fakeAPI) CreateLink(_ context.Context, req service.CreateLinkRequest) (service.LinkResponse, error) {
	f.created = append(f.created, req)
	if f.createErr != nil {
		return service.LinkResponse{}, f.createErr
	}
	return service.LinkResponse{ID: uuid.MustParse("5d7c1a7e-1111-4c1e-9a55-3cf0f0d6a0ff"), Key: req.Key}, nil
}

func (f *fakeAPI) GetApplication(context.Context, string, string) (service.ApplicationResponse, error) {
	return f.application, nil
}

func (f *fakeAPI) ListPayouts(context.Context, string, string) ([]service.PayoutResponse, error) {
	f.payoutCalls++
	return f.payouts, nil
}

func (f *fakeAPI) ListPartnerLinks(context.Context, string, string) ([]service.LinkResponse, error) {
	return []service.LinkResponse{{ShortLink: "https://acme.link/ada", Clicks: 1200, SaleAmount: 123456}}, nil
}

var (
	folderID = "folder_1"
	scope    = Scope{
		WorkspaceID: "ws_1",
		Program: Program{ID: "prog_1", Name: "Acme", Domain: "acme.link", URL: "https://acme.com", DefaultFolderID: &folderID},
	}
)

func newPartner(status string) service.EnrolledPartnerResponse {
	return service.EnrolledPartnerResponse{
		ID:     uuid.MustParse("5d7c1a7e-2222-4c1e-9a55-3cf0f0d6a001"),
		Name:   "Ada",
		Status: status,
	}
}

func newTestController(api *fakeAPI, status string) (*Controller, *QueryCache) {
	cache := NewQueryCache()
	return NewController(api, cache, scope, newPartner(status), zap.NewNop()), cache
}

// Pending partner with no links: the widget needs two clicks and a link before any call.
func TestApprovalWidgetScenario(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api, model.EnrollmentPending)
	ctx := context.Background()
	c.Dispatch(ctx, OpenSheet{})

	if w := c.View().Widget; w == nil || w.Expanded || !w.ShowReject || w.SelectorEnabled {
		t.Fatalf("initial widget = %+v, want collapsed with reject", w)
	}

	c.Dispatch(ctx, ClickApprove{})
	if w := c.View().Widget; !w.Expanded || !w.ShowBack || w.ShowReject {
		t.Fatalf("widget after first click = %+v, want expanded", w)
	}
	if len(api.approvals) != 0 {
		t.Fatal("first click must not call the server")
	}

	c.Dispatch(ctx, ClickApprove{})
	if !c.View().Widget.LinkError {
		t.Fatal("second click without a link must show a validation error")
	}
	if len(api.approvals) != 0 {
		t.Fatal("approve without a link must not call the server")
	}

	c.Dispatch(ctx, SelectLink{LinkID: "link_1"})
	if c.View().Widget.LinkError {
		t.Fatal("selecting a link must clear the error")
	}
	c.Dispatch(ctx, ClickApprove{})

	want := []approveCall{{"prog_1", newPartner("").ID.String(), "link_1"}}
	if len(api.approvals) != 1 || api.approvals[0] != want[0] {
		t.Fatalf("approvals = %+v, want %+v", api.approvals, want)
	}
	if s := c.State(); s.PartnerStatus != model.EnrollmentApproved || s.Open {
		t.Fatalf("state = %+v, want approved and closed", s)
	}
	toasts := c.Toasts()
	if len(toasts) != 1 || toasts[0] != (Toast{Kind: ToastSuccess, Message: "Approved the partner successfully."}) {
		t.Fatalf("toasts = %+v", toasts)
	}
	if got := c.Invalidated(); len(got) != 1 || got[0] != cachekey.Partners("ws_1", "prog_1") {
		t.Fatalf("invalidated = %v", got)
	}
}

func TestApproveFailureKeepsSheet(t *testing.T) {
	api := &fakeAPI{approveErr: &client.APIError{StatusCode: 409, Message: "Link is already associated with another partner."}}
	c, _ := newTestController(api, model.EnrollmentPending)
	ctx := context.Background()
	c.Dispatch(ctx, OpenSheet{})
	c.Dispatch(ctx, ClickApprove{})
	c.Dispatch(ctx, SelectLink{LinkID: "link_1"})
	c.Dispatch(ctx, ClickApprove{})

	s := c.State()
	if s.PartnerStatus != model.EnrollmentPending || !s.Open || s.Busy || s.SelectedLinkID != "link_1" {
		t.Fatalf("state = %+v, want unchanged pending sheet", s)
	}
	toasts := c.Toasts()
	if len(toasts) != 1 || toasts[0].Message != "Link is already associated with another partner." {
		t.Fatalf("toasts = %+v", toasts)
	}
	if len(c.Invalidated()) != 0 {
		t.Fatal("failed approval must not invalidate")
	}
}

func TestApproveDownstreamFailureFallback(t *testing.T) {
	api := &fakeAPI{approveErr: errors.New("connection refused")}
	c, _ := newTestController(api, model.EnrollmentPending)
	ctx := context.Background()
	c.Dispatch(ctx, ClickApprove{})
	c.Dispatch(ctx, SelectLink{LinkID: "link_1"})
	c.Dispatch(ctx, ClickApprove{})

	if toasts := c.Toasts(); len(toasts) != 1 || toasts[0].Message != "Failed to approve partner." {
		t.Fatalf("toasts = %+v", toasts)
	}
}

func TestCreateLinkSelectsNewLink(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api, model.EnrollmentPending)
	ctx := context.Background()
	c.Dispatch(ctx, ClickApprove{})
	c.Dispatch(ctx, SubmitNewLink{Search: "acme.link/ada"})

	if len(api.created) != 1 {
		t.Fatalf("created = %d, want 1", len(api.created))
	}
	req := api.created[0]
	if req.Domain != "acme.link" || req.Key != "ada" || req.URL != "https://acme.com" || !req.TrackConversion {
		t.Fatalf("request = %+v", req)
	}
	if req.ProgramID == nil || *req.ProgramID != "prog_1" || req.FolderID == nil || *req.FolderID != "folder_1" {
		t.Fatalf("program defaults = %v %v", req.ProgramID, req.FolderID)
	}
	if got := c.State().SelectedLinkID; got != "5d7c1a7e-1111-4c1e-9a55-3cf0f0d6a0ff" {
		t.Fatalf("SelectedLinkID = %q", got)
	}
}

func TestCreateLinkFailureShowsServerMessage(t *testing.T) {
	api := &fakeAPI{createErr: &client.APIError{StatusCode: 409, Message: "Duplicate key: This short link already exists."}}
	c, _ := newTestController(api, model.EnrollmentPending)
	ctx := context.Background()
	c.Dispatch(ctx, ClickApprove{})
	c.Dispatch(ctx, SubmitNewLink{Search: "ada"})

	if s := c.State(); s.SelectedLinkID != "" || s.Busy {
		t.Fatalf("state = %+v, want unselected and idle", s)
	}
	toasts := c.Toasts()
	if len(toasts) != 1 || toasts[0].Message != "Duplicate key: This short link already exists." {
		t.Fatalf("toasts = %+v", toasts)
	}
}

// Approved partner with zero payouts: the payouts tab shows an empty state, not a table.
func TestPayoutsEmptyState(t *testing.T) {
	api := &fakeAPI{payouts: []service.PayoutResponse{}}
	c, _ := newTestController(api, model.EnrollmentApproved)
	ctx := context.Background()
	c.Dispatch(ctx, OpenSheet{})
	c.Dispatch(ctx, SelectTab{Tab: TabPayouts})

	v := c.View()
	if v.Payouts == nil || v.Payouts.Empty == nil {
		t.Fatalf("payouts = %+v, want empty state", v.Payouts)
	}
	if v.Payouts.Empty.Title != "No payouts" || len(v.Payouts.Rows) != 0 {
		t.Fatalf("payouts = %+v", v.Payouts)
	}
	if v.Widget != nil {
		t.Fatal("approved partners have no approval widget")
	}
}

func TestPayoutsTable(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{payouts: []service.PayoutResponse{{PeriodStart: &start, PeriodEnd: &end, Amount: 123456, Status: model.PayoutCompleted}}}
	c, _ := newTestController(api, model.EnrollmentApproved)
	ctx := context.Background()
	c.Dispatch(ctx, OpenSheet{})
	c.Dispatch(ctx, SelectTab{Tab: TabPayouts})

	v := c.View()
	if v.Payouts.Empty != nil || len(v.Payouts.Rows) != 1 {
		t.Fatalf("payouts = %+v", v.Payouts)
	}
	want := PayoutRow{Period: "Jan 1 - Jan 31, 2026", Status: "Completed", Amount: "$1,234.56"}
	if v.Payouts.Rows[0] != want {
		t.Fatalf("row = %+v, want %+v", v.Payouts.Rows[0], want)
	}
}

func TestLinksTabAndStats(t *testing.T) {
	api := &fakeAPI{}
	c, _ := newTestController(api, model.EnrollmentApproved)
	c.partner.Stats = service.PartnerStats{Clicks: 1234, SaleAmount: 0}
	c.Dispatch(context.Background(), OpenSheet{})

	v := c.View()
	if v.Stats[0] != (Stat{"Clicks", "1,234"}) || v.Stats[1].Value != "-" || v.Stats[3].Value != "-" {
		t.Fatalf("stats = %+v", v.Stats)
	}
	if v.Links == nil || len(v.Links.Rows) != 1 {
		t.Fatalf("links = %+v", v.Links)
	}
	if row := v.Links.Rows[0]; row.ShortLink != "acme.link/ada" || row.Clicks != "1.2K" || row.Revenue != "$1,235" {
		t.Fatalf("row = %+v", row)
	}
}

func TestPendingViewApplication(t *testing.T) {
	proposal := "Newsletter"
	api := &fakeAPI{application: service.ApplicationResponse{Proposal: &proposal}}
	c, _ := newTestController(api, model.EnrollmentPending)
	appID := uuid.New()
	c.partner.ApplicationID = &appID

	if f := c.View().Application; len(f) != 2 || !f[0].Loading {
		t.Fatalf("fields before fetch = %+v, want loading", f)
	}

	c.Dispatch(context.Background(), OpenSheet{})
	v := c.View()
	if v.Application[0].Title != "How do you plan to promote Acme?" || v.Application[0].Value != "Newsletter" {
		t.Fatalf("proposal = %+v", v.Application[0])
	}
	if v.Application[1].Value != "No response provided" {
		t.Fatalf("comments = %+v", v.Application[1])
	}
	if v.Description != "No description provided" {
		t.Fatalf("description = %q", v.Description)
	}
}

func TestFetchesAreCachedUntilInvalidated(t *testing.T) {
	api := &fakeAPI{payouts: []service.PayoutResponse{}}
	cache := NewQueryCache()
	ctx := context.Background()

	first := NewController(api, cache, scope, newPartner(model.EnrollmentApproved), zap.NewNop())
	first.Dispatch(ctx, OpenSheet{})
	second := NewController(api, cache, scope, newPartner(model.EnrollmentApproved), zap.NewNop())
	second.Dispatch(ctx, OpenSheet{})
	if api.payoutCalls != 1 {
		t.Fatalf("payout fetches = %d, want 1", api.payoutCalls)
	}

	second.HandlePush(websocket.Event{Event: websocket.EventPartnersInvalidate, Prefix: "/api/programs/prog_1/payouts"})
	third := NewController(api, cache, scope, newPartner(model.EnrollmentApproved), zap.NewNop())
	third.Dispatch(ctx, OpenSheet{})
	if api.payoutCalls != 2 {
		t.Fatalf("payout fetches after invalidation = %d, want 2", api.payoutCalls)
	}
}

func TestQueryCacheMutatePrefix(t *testing.T) {
	c := NewQueryCache()
	c.Set(cachekey.Partners("ws_1", "prog_1"), 1)
	c.Set(cachekey.Partners("ws_1", "prog_1")+"&status=pending", 2)
	c.Set(cachekey.Partners("ws_1", "prog_2"), 3)

	dropped := c.MutatePrefix(cachekey.Partners("ws_1", "prog_1"))
	if len(dropped) != 2 {
		t.Fatalf("dropped = %v, want 2 keys", dropped)
	}
	if _, ok := c.Get(cachekey.Partners("ws_1", "prog_2")); !ok {
		t.Fatal("other program's list was dropped")
	}
}

func TestFormat(t *testing.T) {
	if got := compactNumber(999); got != "999" {
		t.Fatalf("compactNumber(999) = %q", got)
	}
	if got := compactNumber(2_000_000); got != "2M" {
		t.Fatalf("compactNumber(2e6) = %q", got)
	}
	if got := revenue(500); got != "$5" {
		t.Fatalf("revenue(500) = %q", got)
	}
	if got := revenue(550); got != "$5.50" {
		t.Fatalf("revenue(550) = %q", got)
	}
	if got := countryName("US"); got != "United States" {
		t.Fatalf("countryName(US) = %q", got)
	}
	if got := period(nil, nil); got != "-" {
		t.Fatalf("period(nil, nil) = %q", got)
	}
}
