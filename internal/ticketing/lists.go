package ticketing

import (
	"strconv"

	"github.com/taopiaopiao/boxoffice/internal/listview"
)

// EventsPath, SessionsPath and VenuesPath are the collection endpoints.
const (
	EventsPath   = "/events"
	SessionsPath = "/sessions"
	VenuesPath   = "/venues"
)

// EventList is the admin event list.
func EventList(pageSize int) listview.Config[Event] {
	return listview.Config[Event]{
		Path:     EventsPath,
		PageSize: pageSize,
		Columns: []listview.Column{
			{Label: "ID", Class: "col-id"}, {Label: "Name", Class: "col-name"}, {Label: "Type"}, {Label: "Artist"},
			{Label: "City"}, {Label: "Status", Class: "col-status"}, {Label: "Price", Class: "col-price"}, {Label: "Created", Class: "col-time"},
		},
		Filters: []listview.Filter{
			{Key: "keyword", Label: "Search", Placeholder: "Event name or artist"},
			{Key: "status", Label: "Status", Kind: listview.FilterSelect, Options: EventStatusOptions()},
			{Key: "type", Label: "Type", Kind: listview.FilterSelect, Options: EventTypes()},
		},
		Row: eventRow,
	}
}

func eventRow(e Event) listview.RowView {
	badge := EventActions.Badge(e.Status)
	price := e.PriceRange
	if price == "" {
		price = PriceRange(e.TicketTiers)
	}
	return listview.RowView{
		ID: e.ID,
		Cells: []listview.Cell{
			{Text: idText(e.ID)},
			{Text: e.Name, Sub: e.Subtitle},
			{Text: EventTypeLabel(e.Type)},
			{Text: orPlaceholder(e.Artist)},
			{Text: orPlaceholder(e.City)},
			{Badge: &badge},
			{Text: price, Class: "price"},
			{Text: FormatDateTime(e.Created())},
		},
		Actions: EventActions.ActionsFor(e.Status, e.SoldCount),
	}
}

// SessionList is the admin session list. The event filter options are
// filled in per request from the event catalogue.
func SessionList(pageSize int) listview.Config[Session] {
	return listview.Config[Session]{
		Path:     SessionsPath,
		PageSize: pageSize,
		Columns: []listview.Column{
			{Label: "ID", Class: "col-id"}, {Label: "Event", Class: "col-name"}, {Label: "Session", Class: "col-session"},
			{Label: "Starts", Class: "col-time"}, {Label: "Venue", Class: "col-venue"}, {Label: "Price", Class: "col-price"},
			{Label: "Seats", Class: "col-seats"}, {Label: "Status", Class: "col-status"},
		},
		Filters: []listview.Filter{
			{Key: "keyword", Label: "Search", Placeholder: "Session name"},
			{Key: "status", Label: "Status", Kind: listview.FilterSelect, Options: SessionStatusOptions()},
			{Key: "eventId", Label: "Event", Kind: listview.FilterSelect},
		},
		Row: sessionRow,
	}
}

func sessionRow(s Session) listview.RowView {
	badge := SessionActions.Badge(s.Status)
	return listview.RowView{
		ID: s.ID,
		Cells: []listview.Cell{
			{Text: idText(s.ID)},
			{Text: orPlaceholder(s.EventName), Sub: s.Subtitle()},
			{Text: orPlaceholder(s.SessionName)},
			{Text: FormatDateTime(s.StartTime)},
			{Text: orPlaceholder(s.VenueName), Sub: s.HallName},
			{Text: PriceRange(s.Tiers()), Class: "price"},
			{Text: Seats(s).String(), Class: "text-small"},
			{Badge: &badge},
		},
		Actions: SessionActions.ActionsFor(s.Status, s.SoldSeats),
	}
}

// VenueList is the venue list shared by the admin console and the storefront.
func VenueList(pageSize int) listview.Config[Venue] {
	return listview.Config[Venue]{
		Path:     VenuesPath,
		PageSize: pageSize,
		Columns: []listview.Column{
			{Label: "ID", Class: "col-id"}, {Label: "Name", Class: "col-name"}, {Label: "City"}, {Label: "District"},
			{Label: "Address"}, {Label: "Capacity"}, {Label: "Created", Class: "col-time"},
		},
		Filters: []listview.Filter{
			{Key: "keyword", Label: "Search", Placeholder: "Venue name"},
			{Key: "city", Label: "City", Placeholder: "City"},
			{Key: "district", Label: "District", Placeholder: "District"},
		},
		Row: venueRow,
	}
}

func venueRow(v Venue) listview.RowView {
	capacity := placeholder
	if v.Capacity != nil && *v.Capacity > 0 {
		capacity = FormatNumber(*v.Capacity)
	}
	return listview.RowView{
		ID: v.ID,
		Cells: []listview.Cell{
			{Text: idText(v.ID)},
			{Text: v.Name},
			{Text: orPlaceholder(v.City)},
			{Text: orPlaceholder(v.District)},
			{Text: orPlaceholder(v.Address)},
			{Text: capacity},
			{Text: FormatDateTime(v.Created())},
		},
		Actions: VenueActions.ActionsFor("", 0),
	}
}

// EventOptions turns events into select options for filters and forms.
func EventOptions(events []Event) []listview.Option {
	out := make([]listview.Option, 0, len(events))
	for _, e := range events {
		out = append(out, listview.Option{Value: idText(e.ID), Label: e.Name})
	}
	return out
}

// VenueOptions turns venues into select options.
func VenueOptions(venues []Venue) []listview.Option {
	out := make([]listview.Option, 0, len(venues))
	for _, v := range venues {
		label := v.Name
		if v.City != "" {
			label += " (" + v.City + ")"
		}
		out = append(out, listview.Option{Value: idText(v.ID), Label: label})
	}
	return out
}

func idText(id int64) string {
	return strconv.FormatInt(id, 10)
}
