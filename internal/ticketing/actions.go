package ticketing

import (
	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/listview"
)

// EventActions is the transition table of events.
var EventActions = actions.New("event", EventOffSale,
	actions.WithRule(EventDraft,
		actions.View[EventStatus](), actions.Edit[EventStatus](),
		actions.Transition("Publish", EventOnSale, "btn-confirm"), actions.Delete[EventStatus]()),
	actions.WithRule(EventComingSoon,
		actions.View[EventStatus](), actions.Edit[EventStatus](),
		actions.Transition("Publish", EventOnSale, "btn-confirm"), actions.Transition("Retract", EventOffSale, "btn-retract")),
	actions.WithRule(EventOnSale,
		actions.View[EventStatus](), actions.Edit[EventStatus](),
		actions.Transition("Retract", EventOffSale, "btn-retract")),
	actions.WithRule(EventOffSale,
		actions.View[EventStatus](), actions.Edit[EventStatus](),
		actions.Transition("Publish", EventOnSale, "btn-confirm"), actions.Delete[EventStatus]()),
	actions.WithRule(EventSoldOut, actions.View[EventStatus]()),
	actions.WithRule(EventEnded, actions.View[EventStatus]()),
	actions.WithRule(EventCancelled, actions.View[EventStatus]()),
	actions.WithConfirm(EventOnSale, "Publish this event? It becomes visible on the storefront immediately."),
	actions.WithConfirm(EventOffSale, "Take this event off sale? Existing orders are not affected."),
	actions.WithDeleteConfirm[EventStatus]("Delete this event? This cannot be undone."),
	actions.WithBadge(EventDraft, "Draft", "badge-secondary"),
	actions.WithBadge(EventComingSoon, "Coming soon", "badge-warning"),
	actions.WithBadge(EventOnSale, "On sale", "badge-success"),
	actions.WithBadge(EventOffSale, "Off sale", "badge-danger"),
	actions.WithBadge(EventSoldOut, "Sold out", "badge-dark"),
	actions.WithBadge(EventEnded, "Ended", "badge-dark"),
	actions.WithBadge(EventCancelled, "Cancelled", "badge-gray"),
)

// SessionActions is the transition table of sessions.
var SessionActions = actions.New("session", SessionOffSale,
	actions.WithRule(SessionNotStarted,
		actions.View[SessionStatus](), actions.Edit[SessionStatus](),
		actions.Transition("Publish", SessionOnSale, "btn-confirm"), actions.Delete[SessionStatus]()),
	actions.WithRule(SessionOnSale,
		actions.View[SessionStatus](), actions.Edit[SessionStatus](),
		actions.Transition("Retract", SessionOffSale, "btn-retract")),
	actions.WithRule(SessionOffSale,
		actions.View[SessionStatus](), actions.Edit[SessionStatus](),
		actions.Transition("Publish", SessionOnSale, "btn-confirm"), actions.Delete[SessionStatus]()),
	actions.WithRule(SessionSoldOut, actions.View[SessionStatus]()),
	actions.WithRule(SessionEnded, actions.View[SessionStatus]()),
	actions.WithConfirm(SessionOnSale, "Publish this session? Sales start immediately after publishing."),
	actions.WithConfirm(SessionOffSale, "Take this session off sale? Existing orders are not affected."),
	actions.WithDeleteConfirm[SessionStatus]("Delete this session? This cannot be undone."),
	actions.WithBadge(SessionNotStarted, "Not started", "badge-info"),
	actions.WithBadge(SessionOnSale, "On sale", "badge-success"),
	actions.WithBadge(SessionSoldOut, "Sold out", "badge-gray"),
	actions.WithBadge(SessionEnded, "Ended", "badge-dark"),
	actions.WithBadge(SessionOffSale, "Off sale", "badge-danger"),
)

// VenueStatus exists only to instantiate the venue table; venues carry no status.
type VenueStatus string

// VenueActions offers the same actions for every venue.
var VenueActions = actions.New[VenueStatus]("venue", "",
	actions.WithFallback(actions.View[VenueStatus](), actions.Edit[VenueStatus](), actions.Delete[VenueStatus]()),
)

// EventStatusOptions lists the statuses an admin may filter events by.
func EventStatusOptions() []listview.Option {
	return []listview.Option{
		{Value: string(EventDraft), Label: "Draft"},
		{Value: string(EventComingSoon), Label: "Coming soon"},
		{Value: string(EventOnSale), Label: "On sale"},
		{Value: string(EventOffSale), Label: "Off sale"},
		{Value: string(EventSoldOut), Label: "Sold out"},
		{Value: string(EventEnded), Label: "Ended"},
	}
}

// SessionStatusOptions lists the statuses an admin may filter sessions by.
func SessionStatusOptions() []listview.Option {
	return []listview.Option{
		{Value: string(SessionNotStarted), Label: "Not started"},
		{Value: string(SessionOnSale), Label: "On sale"},
		{Value: string(SessionOffSale), Label: "Off sale"},
		{Value: string(SessionSoldOut), Label: "Sold out"},
		{Value: string(SessionEnded), Label: "Ended"},
	}
}
