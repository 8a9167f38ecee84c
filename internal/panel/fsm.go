// Package panel drives the partner details sheet: an explicit state machine,
// a controller that runs its effects against the API, and a view model.
package panel

import "affiliate/internal/model"

// Widget is the sub-state of the approval footer
type Widget int

const (
	WidgetCollapsed Widget = iota
	WidgetAwaitingLink
)

func (w Widget) String() string {
	if w == WidgetAwaitingLink {
		return "awaiting-link"
	}
	return "collapsed"
}

type Tab string

const (
	TabLinks   Tab = "links"
	TabPayouts Tab = "payouts"
)

const (
	msgApproved       = "Approved the partner successfully."
	msgRejected       = "Partner rejected successfully."
	msgApproveFailed  = "Failed to approve partner."
	msgRejectFailed   = "Failed to reject partner."
	msgLinkCreateFail = "Failed to create link"
	msgNoLinkEntered  = "No link entered"
	ToastSuccess      = "success"
	ToastError        = "error"
)

// State is everything the sheet renders from
type State struct {
	PartnerStatus  string
	Widget         Widget
	SelectedLinkID string
	LinkError      bool
	Busy           bool
	Tab            Tab
	Open           bool
	// PartnersPrefix is the partner-list cache prefix invalidated after a decision
	PartnersPrefix string
}

// NewState is a closed sheet for a partner in status
func NewState(status, partnersPrefix string) State {
	return State{PartnerStatus: status, Tab: TabLinks, PartnersPrefix: partnersPrefix}
}

// Events

type Event interface{ event() }

type (
	OpenSheet        struct{}
	ClickApprove     struct{}
	ClickBack        struct{}
	ClickReject      struct{}
	SelectLink       struct{ LinkID string }
	SubmitNewLink    struct{ Search string }
	LinkCreated      struct{ LinkID string }
	LinkCreateFailed struct{ Message string }
	ApproveSucceeded struct{}
	ApproveFailed    struct{ Message string }
	RejectSucceeded  struct{}
	RejectFailed     struct{ Message string }
	SelectTab        struct{ Tab Tab }
)

func (OpenSheet) event()        {}
func (ClickApprove) event()     {}
func (ClickBack) event()        {}
func (ClickReject) event()      {}
func (SelectLink) event()       {}
func (SubmitNewLink) event()    {}
func (LinkCreated) event()      {}
func (LinkCreateFailed) event() {}
func (ApproveSucceeded) event() {}
func (ApproveFailed) event()    {}
func (RejectSucceeded) event()  {}
func (RejectFailed) event()     {}
func (SelectTab) event()        {}

// Effects

type Effect interface{ effect() }

type (
	CallApprove        struct{ LinkID string }
	CallReject         struct{}
	CreateLink         struct{ Search string }
	InvalidatePartners struct{ Prefix string }
	Toast              struct{ Kind, Message string }
	CloseSheet         struct{}
	FetchApplication   struct{}
	FetchLinks         struct{}
	FetchPayouts       struct{}
)

func (CallApprove) effect()        {}
func (CallReject) effect()         {}
func (CreateLink) effect()         {}
func (InvalidatePartners) effect() {}
func (Toast) effect()              {}
func (CloseSheet) effect()         {}
func (FetchApplication) effect()   {}
func (FetchLinks) effect()         {}
func (FetchPayouts) effect()       {}

// Transition is the whole sheet behaviour. It never mutates s.
func Transition(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case OpenSheet:
		s.Open = true
		switch s.PartnerStatus {
		case model.EnrollmentPending:
			return s, []Effect{FetchApplication{}}
		case model.EnrollmentApproved:
			return s, []Effect{FetchLinks{}, FetchPayouts{}}
		}
		return s, nil

	case SelectTab:
		if s.PartnerStatus != model.EnrollmentApproved || (e.Tab != TabLinks && e.Tab != TabPayouts) {
			return s, nil
		}
		s.Tab = e.Tab
		return s, nil
	}

	if s.PartnerStatus != model.EnrollmentPending {
		return s, nil
	}
	return pending(s, ev)
}

func pending(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case ClickApprove:
		if s.Busy {
			return s, nil
		}
		if s.Widget == WidgetCollapsed {
			s.Widget = WidgetAwaitingLink
			s.LinkError = false
			return s, nil
		}
		if s.SelectedLinkID == "" {
			s.LinkError = true
			return s, nil
		}
		s.Busy = true
		return s, []Effect{CallApprove{LinkID: s.SelectedLinkID}}

	case ClickBack:
		if s.Busy || s.Widget != WidgetAwaitingLink {
			return s, nil
		}
		s.Widget = WidgetCollapsed
		s.SelectedLinkID = ""
		return s, nil

	case ClickReject:
		if s.Busy || s.Widget != WidgetCollapsed {
			return s, nil
		}
		s.Busy = true
		return s, []Effect{CallReject{}}

	case SelectLink:
		if s.Busy || s.Widget != WidgetAwaitingLink {
			return s, nil
		}
		s.SelectedLinkID = e.LinkID
		if e.LinkID != "" {
			s.LinkError = false
		}
		return s, nil

	case SubmitNewLink:
		if s.Busy || s.Widget != WidgetAwaitingLink {
			return s, nil
		}
		if e.Search == "" {
			return s, []Effect{Toast{Kind: ToastError, Message: msgNoLinkEntered}}
		}
		s.Busy = true
		return s, []Effect{CreateLink{Search: e.Search}}

	case LinkCreated:
		s.Busy = false
		s.SelectedLinkID = e.LinkID
		s.LinkError = false
		return s, nil

	case LinkCreateFailed:
		s.Busy = false
		return s, []Effect{Toast{Kind: ToastError, Message: orDefault(e.Message, msgLinkCreateFail)}}

	case ApproveSucceeded:
		s.Busy = false
		s.PartnerStatus = model.EnrollmentApproved
		s.Widget = WidgetCollapsed
		s.SelectedLinkID = ""
		s.Open = false
		return s, []Effect{
			InvalidatePartners{Prefix: s.PartnersPrefix},
			Toast{Kind: ToastSuccess, Message: msgApproved},
			CloseSheet{},
		}

	case ApproveFailed:
		s.Busy = false
		return s, []Effect{Toast{Kind: ToastError, Message: orDefault(e.Message, msgApproveFailed)}}

	case RejectSucceeded:
		s.Busy = false
		s.PartnerStatus = model.EnrollmentRejected
		s.Open = false
		return s, []Effect{
			InvalidatePartners{Prefix: s.PartnersPrefix},
			Toast{Kind: ToastSuccess, Message: msgRejected},
			CloseSheet{},
		}

	case RejectFailed:
		s.Busy = false
		return s, []Effect{Toast{Kind: ToastError, Message: orDefault(e.Message, msgRejectFailed)}}
	}
	return s, nil
}

func orDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
