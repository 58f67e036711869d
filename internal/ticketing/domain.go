// Package ticketing holds the entity families of the box office: their wire
// shapes, status transition tables, list layouts and form schemas.
package ticketing

import "encoding/json"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft      EventStatus = "draft"
	EventComingSoon EventStatus = "coming_soon"
	EventOnSale     EventStatus = "on_sale"
	EventOffSale    EventStatus = "off_sale"
	EventSoldOut    EventStatus = "sold_out"
	EventEnded      EventStatus = "ended"
	EventCancelled  EventStatus = "cancelled"
)

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionOnSale     SessionStatus = "on_sale"
	SessionOffSale    SessionStatus = "off_sale"
	SessionSoldOut    SessionStatus = "sold_out"
	SessionEnded      SessionStatus = "ended"
)

// Tier is a ticket tier. Events carry the catalogue price; sessions carry a
// per-session allocation referencing the event tier through TierID.
type Tier struct {
	ID             int64    `json:"id,omitempty"`
	TierID         int64    `json:"tierId,omitempty"`
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	Color          string   `json:"color,omitempty"`
	Price          *float64 `json:"price,omitempty"`
	BasePrice      *float64 `json:"basePrice,omitempty"`
	OverridePrice  *float64 `json:"overridePrice,omitempty"`
	MaxSeats       int      `json:"maxSeats,omitempty"`
	SeatCount      int      `json:"seatCount,omitempty"`
	AvailableSeats int      `json:"availableSeats,omitempty"`
	MaxPurchase    int      `json:"maxPurchase,omitempty"`
	Enabled        *bool    `json:"enabled,omitempty"`
}

// EffectivePrice is the override price when set, else the base or catalogue price.
func (t Tier) EffectivePrice() (float64, bool) {
	for _, p := range []*float64{t.OverridePrice, t.Price, t.BasePrice} {
		if p != nil {
			return *p, true
		}
	}
	return 0, false
}

// Event is a show with its ticket tiers.
type Event struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Subtitle       string      `json:"subtitle"`
	Type           string      `json:"type"`
	Artist         string      `json:"artist"`
	City           string      `json:"city"`
	VenueID        *int64      `json:"venueId"`
	VenueName      string      `json:"venueName"`
	Status         EventStatus `json:"status"`
	PriceRange     string      `json:"priceRange"`
	CoverImage     string      `json:"coverImage"`
	Description    string      `json:"description"`
	EventStartDate string      `json:"eventStartDate"`
	EventEndDate   string      `json:"eventEndDate"`
	Duration       *int        `json:"duration"`
	SoldCount      int         `json:"soldCount"`
	TicketTiers    []Tier      `json:"ticketTiers"`
	CreatedAt      string      `json:"createdAt"`
	CreateTime     string      `json:"createTime"`
}

// Created returns whichever creation timestamp the API filled in.
func (e Event) Created() string {
	if e.CreatedAt != "" {
		return e.CreatedAt
	}
	return e.CreateTime
}

// SoldOut reports whether the storefront shows the sold-out ribbon.
func (e Event) SoldOut() bool {
	return e.Status == EventSoldOut
}

// Session is one performance of an event.
type Session struct {
	ID               int64           `json:"id"`
	EventID          int64           `json:"eventId"`
	EventName        string          `json:"eventName"`
	Event            *Event          `json:"event"`
	SessionName      string          `json:"sessionName"`
	StartTime        string          `json:"startTime"`
	EndTime          string          `json:"endTime"`
	VenueID          *int64          `json:"venueId"`
	VenueName        string          `json:"venueName"`
	HallName         string          `json:"hallName"`
	Address          string          `json:"address"`
	TotalSeats       int             `json:"totalSeats"`
	SoldSeats        int             `json:"soldSeats"`
	AvailableSeats   int             `json:"availableSeats"`
	Status           SessionStatus   `json:"status"`
	TicketTiers      []Tier          `json:"ticketTiers"`
	TicketTierConfig []Tier          `json:"ticketTierConfig"`
	Metadata         json.RawMessage `json:"metadata"`
}

// Tiers returns the priced tiers, preferring the expanded list over the raw config.
func (s Session) Tiers() []Tier {
	if len(s.TicketTiers) > 0 {
		return s.TicketTiers
	}
	return s.TicketTierConfig
}

// Subtitle returns the parent event subtitle when the API embedded it.
func (s Session) Subtitle() string {
	if s.Event == nil {
		return ""
	}
	return s.Event.Subtitle
}

// Venue is a place sessions are held at.
type Venue struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	City        string   `json:"city"`
	District    string   `json:"district"`
	Address     string   `json:"address"`
	Capacity    *int     `json:"capacity"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Images      string   `json:"images"`
	Description string   `json:"description"`
	Facilities  []string `json:"facilities"`
	CreatedAt   string   `json:"createdAt"`
	CreateTime  string   `json:"createTime"`
}

// Created returns whichever creation timestamp the API filled in.
func (v Venue) Created() string {
	if v.CreatedAt != "" {
		return v.CreatedAt
	}
	return v.CreateTime
}
