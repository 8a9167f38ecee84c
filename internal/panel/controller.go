package panel

import (
	"context"

	"affiliate/internal/client"
	"affiliate/internal/service"
	"affiliate/internal/websocket"
	"affiliate/pkg/cachekey"

	"go.uber.org/zap"
)

// API is the server surface the sheet needs. *client.Client implements it.
type API interface {
	ApprovePartner(ctx context.Context, programID, partnerID, linkID string) error
	RejectPartner(ctx context.Context, programID, partnerID string) error
	CreateLink(ctx context.Context, req service.CreateLinkRequest) (service.LinkResponse, error)
	GetApplication(ctx context.Context, programID, applicationID string) (service.ApplicationResponse, error)
	ListPayouts(ctx context.Context, programID, partnerID string) ([]service.PayoutResponse, error)
	ListPartnerLinks(ctx context.Context, programID, partnerID string) ([]service.LinkResponse, error)
}

// Program holds the program defaults used by the link creation helper
type Program struct {
	ID              string
	Name            string
	Domain          string
	URL             string
	DefaultFolderID *string
}

// Scope is the workspace and program the sheet is opened in
type Scope struct {
	WorkspaceID string
	Program     Program
}

type fetched[T any] struct {
	loaded bool
	value  T
	err    string
}

// Controller owns the sheet state and runs the effects the state machine asks for
type Controller struct {
	api     API
	cache   *QueryCache
	scope   Scope
	partner service.EnrolledPartnerResponse
	state   State
	log     *zap.Logger

	application fetched[service.ApplicationResponse]
	links       fetched[[]service.LinkResponse]
	payouts     fetched[[]service.PayoutResponse]

	toasts      []Toast
	invalidated []string
	onClose     func()
}

func NewController(api API, cache *QueryCache, scope Scope, partner service.EnrolledPartnerResponse, log *zap.Logger) *Controller {
	prefix := cachekey.Partners(scope.WorkspaceID, scope.Program.ID)
	return &Controller{
		api:     api,
		cache:   cache,
		scope:   scope,
		partner: partner,
		state:   NewState(partner.Status, prefix),
		log:     log.With(zap.String("component", "panel"), zap.String("partner_id", partner.ID.String())),
	}
}

// OnClose registers a callback run when the sheet closes itself
func (c *Controller) OnClose(fn func()) { c.onClose = fn }

func (c *Controller) State() State { return c.state }

// Toasts drains the notifications raised since the last call
func (c *Controller) Toasts() []Toast {
	t := c.toasts
	c.toasts = nil
	return t
}

// Invalidated lists the cache keys dropped by decisions and pushes so far
func (c *Controller) Invalidated() []string { return c.invalidated }

// Dispatch applies ev and runs the resulting effects to completion
func (c *Controller) Dispatch(ctx context.Context, ev Event) {
	next, effects := Transition(c.state, ev)
	c.state = next
	for _, eff := range effects {
		c.run(ctx, eff)
	}
}

// HandlePush applies an invalidation event received over the websocket
func (c *Controller) HandlePush(ev websocket.Event) {
	if ev.Event == websocket.EventPartnersInvalidate && ev.Prefix != "" {
		c.invalidate(ev.Prefix)
	}
}

func (c *Controller) run(ctx context.Context, eff Effect) {
	programID, partnerID := c.scope.Program.ID, c.partner.ID.String()

	switch e := eff.(type) {
	case CallApprove:
		if err := c.api.ApprovePartner(ctx, programID, partnerID, e.LinkID); err != nil {
			c.log.Warn("approve failed", zap.Error(err))
			c.Dispatch(ctx, ApproveFailed{Message: client.MessageOf(err, "")})
			return
		}
		c.Dispatch(ctx, ApproveSucceeded{})

	case CallReject:
		if err := c.api.RejectPartner(ctx, programID, partnerID); err != nil {
			c.log.Warn("reject failed", zap.Error(err))
			c.Dispatch(ctx, RejectFailed{Message: client.MessageOf(err, "")})
			return
		}
		c.Dispatch(ctx, RejectSucceeded{})

	case CreateLink:
		link, err := c.createLink(ctx, e.Search)
		if err != nil {
			c.Dispatch(ctx, LinkCreateFailed{Message: client.MessageOf(err, err.Error())})
			return
		}
		c.Dispatch(ctx, LinkCreated{LinkID: link.ID.String()})

	case InvalidatePartners:
		c.invalidate(e.Prefix)

	case Toast:
		c.toasts = append(c.toasts, e)

	case CloseSheet:
		if c.onClose != nil {
			c.onClose()
		}

	case FetchApplication:
		if c.partner.ApplicationID == nil {
			return
		}
		appID := c.partner.ApplicationID.String()
		app, err := Cached(c.cache, cachekey.Application(c.scope.WorkspaceID, programID, appID), func() (service.ApplicationResponse, error) {
			return c.api.GetApplication(ctx, programID, appID)
		})
		c.application = result(app, err, "Failed to load application")

	case FetchLinks:
		links, err := Cached(c.cache, cachekey.Links(c.scope.WorkspaceID, programID, partnerID), func() ([]service.LinkResponse, error) {
			return c.api.ListPartnerLinks(ctx, programID, partnerID)
		})
		c.links = result(links, err, "Failed to load links")

	case FetchPayouts:
		payouts, err := Cached(c.cache, cachekey.Payouts(c.scope.WorkspaceID, programID, partnerID), func() ([]service.PayoutResponse, error) {
			return c.api.ListPayouts(ctx, programID, partnerID)
		})
		c.payouts = result(payouts, err, "Failed to load payouts")
	}
}

// createLink builds a link from selector input with the program defaults
func (c *Controller) createLink(ctx context.Context, search string) (service.LinkResponse, error) {
	key, err := ShortKeyFromSearch(search, c.scope.Program.Domain)
	if err != nil {
		return service.LinkResponse{}, err
	}
	programID := c.scope.Program.ID
	return c.api.CreateLink(ctx, service.CreateLinkRequest{
		Domain:          c.scope.Program.Domain,
		Key:             key,
		URL:             c.scope.Program.URL,
		TrackConversion: true,
		ProgramID:       &programID,
		FolderID:        c.scope.Program.DefaultFolderID,
	})
}

func (c *Controller) invalidate(prefix string) {
	dropped := c.cache.MutatePrefix(prefix)
	c.invalidated = append(c.invalidated, prefix)
	c.log.Debug("cache invalidated", zap.String("prefix", prefix), zap.Int("dropped", len(dropped)))
}

func result[T any](v T, err error, msg string) fetched[T] {
	if err != nil {
		return fetched[T]{loaded: true, err: msg}
	}
	return fetched[T]{loaded: true, value: v}
}
