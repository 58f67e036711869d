package storefront

import (
	"strings"

	"github.com/taopiaopiao/boxoffice/internal/ticketing"
)

// EventCard is one tile of the event grid. The JSON form feeds the "load
// more" script.
type EventCard struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Artist     string `json:"artist"`
	City       string `json:"city"`
	VenueName  string `json:"venueName"`
	TypeLabel  string `json:"typeLabel"`
	CoverClass string `json:"coverClass"`
	CoverImage string `json:"coverImage"`
	Dates      string `json:"dates"`
	PriceFrom  string `json:"priceFrom"`
	SoldOut    bool   `json:"soldOut"`
}

// NewEventCard builds the grid tile of e.
func NewEventCard(e ticketing.Event) EventCard {
	return EventCard{
		ID:         e.ID,
		Name:       e.Name,
		Artist:     e.Artist,
		City:       e.City,
		VenueName:  e.VenueName,
		TypeLabel:  ticketing.EventTypeLabel(e.Type),
		CoverClass: ticketing.CoverClass(e.Type),
		CoverImage: e.CoverImage,
		Dates:      eventDates(e),
		PriceFrom:  priceFrom(e),
		SoldOut:    e.SoldOut(),
	}
}

func cards(events []ticketing.Event) []EventCard {
	out := make([]EventCard, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventCard(e))
	}
	return out
}

// eventDates prints the run of an event as one date or a "from - to" span.
func eventDates(e ticketing.Event) string {
	start := ticketing.FormatDate(e.EventStartDate)
	end := ticketing.FormatDate(e.EventEndDate)
	switch {
	case e.EventStartDate == "" && e.EventEndDate == "":
		return "Dates to be announced"
	case e.EventEndDate == "" || start == end:
		return start
	case e.EventStartDate == "":
		return end
	}
	return start + " - " + end
}

// priceFrom is the cheapest tier price, falling back to the lower bound of
// the range the list endpoint precomputed.
func priceFrom(e ticketing.Event) string {
	if len(e.TicketTiers) > 0 {
		if p := ticketing.MinPrice(e.TicketTiers); p != "-" {
			return p
		}
		return ""
	}
	if lo, _, found := strings.Cut(e.PriceRange, " - "); found {
		return strings.TrimSpace(lo)
	}
	return strings.TrimSpace(e.PriceRange)
}
