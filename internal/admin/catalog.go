package admin

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/forms"
	"github.com/taopiaopiao/boxoffice/internal/listview"
	"github.com/taopiaopiao/boxoffice/internal/ticketing"
)

// lookupSize is large enough to list every event or venue in a select.
const lookupSize = 1000

const referenceDataFailed = "Some reference data could not be loaded: "

type lookupQuery struct {
	Page     int `url:"page"`
	PageSize int `url:"pageSize"`
}

func newResources(api API, pageSize int) map[string]*resource {
	events := listview.New(api, ticketing.EventList(pageSize))
	sessions := listview.New(api, ticketing.SessionList(pageSize))
	venues := listview.New(api, ticketing.VenueList(pageSize))

	eventForm := forms.NewController(api, ticketing.EventsPath, ticketing.EventSchema())
	sessionForm := forms.NewController(api, ticketing.SessionsPath, ticketing.SessionSchema())
	venueForm := forms.NewController(api, ticketing.VenuesPath, ticketing.VenueSchema())

	return map[string]*resource{
		"events": {
			name:     "events",
			entity:   "event",
			title:    "Events",
			path:     ticketing.EventsPath,
			template: "pages/admin/event_form.html",
			soldKey:  "soldCount",
			filters:  events.Filters(),
			form:     eventForm,
			rules:    tableRules[ticketing.EventStatus]{table: ticketing.EventActions},
			list:     listLoader(events),
			prepare: func(ctx context.Context, h *Handler, form *forms.Form) (map[string][]listview.Option, error) {
				return h.prepareEvent(ctx, eventForm.Schema(), form)
			},
			act: func(form *forms.Form, action string) bool {
				return eventAction(eventForm.Schema(), form, action)
			},
		},
		"sessions": {
			name:     "sessions",
			entity:   "session",
			title:    "Sessions",
			path:     ticketing.SessionsPath,
			template: "pages/admin/session_form.html",
			soldKey:  "soldSeats",
			filters:  sessions.Filters(),
			form:     sessionForm,
			rules:    tableRules[ticketing.SessionStatus]{table: ticketing.SessionActions},
			list: func(ctx context.Context, h *Handler, q url.Values) (listview.Table, error) {
				return h.loadSessions(ctx, sessions, q)
			},
			prepare: func(ctx context.Context, h *Handler, form *forms.Form) (map[string][]listview.Option, error) {
				return h.prepareSession(ctx, form)
			},
			act: func(_ *forms.Form, action string) bool {
				return action == "reload_tiers"
			},
		},
		"venues": {
			name:     "venues",
			entity:   "venue",
			title:    "Venues",
			path:     ticketing.VenuesPath,
			template: "pages/admin/venue_form.html",
			filters:  venues.Filters(),
			form:     venueForm,
			rules:    tableRules[ticketing.VenueStatus]{table: ticketing.VenueActions},
			list:     listLoader(venues),
			prepare: func(context.Context, *Handler, *forms.Form) (map[string][]listview.Option, error) {
				return map[string][]listview.Option{"facilities": ticketing.Facilities()}, nil
			},
			act: func(*forms.Form, string) bool { return false },
		},
	}
}

func (h *Handler) eventOptions(ctx context.Context) ([]listview.Option, error) {
	page, err := h.api.FetchPage(ctx, ticketing.EventsPath, lookupQuery{Page: 1, PageSize: lookupSize})
	if err != nil {
		return nil, err
	}
	events, err := apiclient.Decode[ticketing.Event](page)
	if err != nil {
		return nil, err
	}
	return ticketing.EventOptions(events), nil
}

func (h *Handler) venueOptions(ctx context.Context) ([]listview.Option, error) {
	page, err := h.api.FetchPage(ctx, ticketing.VenuesPath, lookupQuery{Page: 1, PageSize: lookupSize})
	if err != nil {
		return nil, err
	}
	venues, err := apiclient.Decode[ticketing.Venue](page)
	if err != nil {
		return nil, err
	}
	return ticketing.VenueOptions(venues), nil
}

// loadSessions fills the event filter from the catalogue before loading. A
// failed lookup leaves the filter without options rather than failing the list.
func (h *Handler) loadSessions(ctx context.Context, ctrl *listview.Controller[ticketing.Session], q url.Values) (listview.Table, error) {
	options, err := h.eventOptions(ctx)
	switch {
	case err == nil:
		ctrl = ctrl.WithFilterOptions("eventId", options)
	case apiclient.IsAuthExpired(err):
		return listview.Table{}, err
	default:
		h.logger.Warn("load session event filter", slog.Any("error", err))
	}
	return ctrl.Load(ctx, listview.FromQuery(q, ctrl.Filters()))
}

func (h *Handler) prepareEvent(ctx context.Context, schema *forms.Schema, form *forms.Form) (map[string][]listview.Option, error) {
	options := map[string][]listview.Option{
		"types":    ticketing.EventTypes(),
		"statuses": ticketing.EventStatusOptions(),
	}
	venues, err := h.venueOptions(ctx)
	if err != nil {
		if apiclient.IsAuthExpired(err) {
			return nil, err
		}
		h.logger.Warn("load venue options", slog.Any("error", err))
		if form.Error == "" {
			form.Error = referenceDataFailed + apiclient.Message(err)
		}
	}
	options["venues"] = venues
	if !form.ReadOnly && len(form.Rows(ticketing.TierGroup)) == 0 {
		schema.DefaultRow(form.Values, ticketing.TierGroup, 0)
	}
	return options, nil
}

func eventAction(schema *forms.Schema, form *forms.Form, action string) bool {
	switch {
	case action == "add_tier":
		schema.DefaultRow(form.Values, ticketing.TierGroup, form.NextIndex(ticketing.TierGroup))
		return true
	case strings.HasPrefix(action, "remove_tier:"):
		if index, err := strconv.Atoi(strings.TrimPrefix(action, "remove_tier:")); err == nil {
			form.RemoveRow(ticketing.TierGroup, index)
		}
		return true
	}
	return false
}

// prepareSession loads the event and venue selects and, once an event is
// chosen, rebuilds the tier rows from that event's catalogue tiers.
func (h *Handler) prepareSession(ctx context.Context, form *forms.Form) (map[string][]listview.Option, error) {
	var (
		g       errgroup.Group
		events  []listview.Option
		venues  []listview.Option
		event   ticketing.Event
		loaded  bool
		eventID = form.Value("eventId")
	)
	g.Go(func() error {
		var err error
		events, err = h.eventOptions(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		venues, err = h.venueOptions(ctx)
		return err
	})
	if eventID != "" {
		g.Go(func() error {
			if err := h.api.Get(ctx, ticketing.EventsPath+"/"+apiclient.EscapeID(eventID), nil, &event); err != nil {
				return err
			}
			loaded = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if apiclient.IsAuthExpired(err) {
			return nil, err
		}
		h.logger.Warn("load session references", slog.String("event_id", eventID), slog.Any("error", err))
		if form.Error == "" {
			form.Error = referenceDataFailed + apiclient.Message(err)
		}
	}
	if loaded {
		ticketing.ApplyEventTiers(form, event.TicketTiers)
	}
	return map[string][]listview.Option{
		"events":    events,
		"venues":    venues,
		"statuses":  ticketing.SessionStatusOptions(),
		"seatModes": ticketing.SeatModes(),
	}, nil
}
