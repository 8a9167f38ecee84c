package panel

import (
	"affiliate/internal/model"
)

const dicebearAvatarURL = "https://api.dicebear.com/9.x/notionists/svg?seed="

var statusLabels = map[string]string{
	model.EnrollmentPending:  "Pending",
	model.EnrollmentApproved: "Approved",
	model.EnrollmentRejected: "Rejected",
	model.EnrollmentInvited:  "Invited",
	model.EnrollmentDeclined: "Declined",
	model.EnrollmentBanned:   "Banned",
}

var payoutStatusLabels = map[string]string{
	model.PayoutPending:    "Pending",
	model.PayoutProcessing: "Processing",
	model.PayoutCompleted:  "Completed",
	model.PayoutFailed:     "Failed",
	model.PayoutCanceled:   "Canceled",
}

type Stat struct {
	Label string
	Value string
}

type LinkRow struct {
	ShortLink string
	Clicks    string
	Leads     string
	Sales     string
	Revenue   string
}

type PayoutRow struct {
	Period string
	Status string
	Amount string
}

type EmptyState struct {
	Title       string
	Description string
}

// TableView is a tab body: rows, a loading placeholder, an error or an empty state
type TableView[R any] struct {
	Loading bool
	Error   string
	Rows    []R
	Empty   *EmptyState
}

type Field struct {
	Title   string
	Value   string
	Loading bool
}

type Presence struct {
	Label string
	Value string
}

// WidgetView is the approval footer
type WidgetView struct {
	Expanded        bool
	ShowReject      bool
	ShowBack        bool
	SelectorEnabled bool
	SelectedLinkID  string
	LinkError       bool
	Busy            bool
}

// View is the render model of the sheet
type View struct {
	Title       string
	Open        bool
	Name        string
	Email       string
	Image       string
	Country     string
	StatusLabel string

	// approved
	Stats             []Stat
	Tabs              []Tab
	Tab               Tab
	Links             *TableView[LinkRow]
	Payouts           *TableView[PayoutRow]
	CreatePayoutShown bool

	// pending and others
	OnlinePresence []Presence
	Description    string
	Application    []Field
	Widget         *WidgetView
}

// View builds the render model from the current state and fetched data
func (c *Controller) View() View {
	s, p := c.state, c.partner

	v := View{
		Title:       "Partner details",
		Open:        s.Open,
		Name:        p.Name,
		Image:       p.Image,
		Country:     countryName(p.Country),
		StatusLabel: statusLabels[s.PartnerStatus],
	}
	if p.Email != nil {
		v.Email = *p.Email
	}
	if v.Image == "" {
		v.Image = dicebearAvatarURL + p.Name
	}

	if s.PartnerStatus == model.EnrollmentApproved {
		v.Stats = []Stat{
			{"Clicks", dash(p.Stats.Clicks, fullNumber)},
			{"Leads", dash(p.Stats.Leads, fullNumber)},
			{"Sales", dash(p.Stats.Sales, fullNumber)},
			{"Revenue", dash(p.Stats.SaleAmount, revenue)},
		}
		v.Tabs = []Tab{TabLinks, TabPayouts}
		v.Tab = s.Tab
		v.CreatePayoutShown = true
		if s.Tab == TabPayouts {
			v.Payouts = c.payoutsView()
		} else {
			v.Links = c.linksView()
		}
		return v
	}

	v.OnlinePresence = c.onlinePresence()
	v.Description = "No description provided"
	if p.Description != nil && *p.Description != "" {
		v.Description = *p.Description
	}
	if p.ApplicationID != nil {
		v.Application = c.applicationFields()
	}
	if s.PartnerStatus == model.EnrollmentPending {
		expanded := s.Widget == WidgetAwaitingLink
		v.Widget = &WidgetView{
			Expanded:        expanded,
			ShowReject:      !expanded,
			ShowBack:        expanded,
			SelectorEnabled: expanded,
			SelectedLinkID:  s.SelectedLinkID,
			LinkError:       s.LinkError,
			Busy:            s.Busy,
		}
	}
	return v
}

func (c *Controller) linksView() *TableView[LinkRow] {
	t := &TableView[LinkRow]{Loading: !c.links.loaded, Error: c.links.err}
	for _, l := range c.links.value {
		t.Rows = append(t.Rows, LinkRow{
			ShortLink: prettyURL(l.ShortLink),
			Clicks:    compactNumber(l.Clicks),
			Leads:     compactNumber(l.Leads),
			Sales:     compactNumber(l.Sales),
			Revenue:   currency(l.SaleAmount, 0),
		})
	}
	return t
}

// payoutsView renders an empty state instead of a table once a fetch returns nothing
func (c *Controller) payoutsView() *TableView[PayoutRow] {
	t := &TableView[PayoutRow]{Loading: !c.payouts.loaded, Error: c.payouts.err}
	if c.payouts.loaded && c.payouts.err == "" && len(c.payouts.value) == 0 {
		t.Empty = &EmptyState{
			Title:       "No payouts",
			Description: "When this partner is eligible for or has received payouts, they will appear here.",
		}
		return t
	}
	for _, po := range c.payouts.value {
		status := payoutStatusLabels[po.Status]
		if status == "" {
			status = "-"
		}
		t.Rows = append(t.Rows, PayoutRow{
			Period: period(po.PeriodStart, po.PeriodEnd),
			Status: status,
			Amount: currency(po.Amount, 2),
		})
	}
	return t
}

func (c *Controller) applicationFields() []Field {
	fields := []Field{
		{Title: "How do you plan to promote " + c.scope.Program.Name + "?"},
		{Title: "Any additional questions or comments?"},
	}
	if !c.application.loaded {
		for i := range fields {
			fields[i].Loading = true
		}
		return fields
	}
	app := c.application.value
	fields[0].Value = responseText(app.Proposal)
	fields[1].Value = responseText(app.Comments)
	return fields
}

func responseText(s *string) string {
	if s == nil || *s == "" {
		return "No response provided"
	}
	return *s
}

func (c *Controller) onlinePresence() []Presence {
	p := c.partner
	var out []Presence
	for _, f := range []Presence{
		{"Website", p.Website},
		{"YouTube", p.YouTube},
		{"X (Twitter)", p.Twitter},
		{"LinkedIn", p.LinkedIn},
		{"Instagram", p.Instagram},
		{"TikTok", p.TikTok},
	} {
		if f.Value != "" {
			out = append(out, f)
		}
	}
	return out
}
