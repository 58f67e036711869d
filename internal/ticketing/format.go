package ticketing

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/taopiaopiao/boxoffice/internal/forms"
	"github.com/taopiaopiao/boxoffice/internal/listview"
)

const placeholder = "-"

var printer = message.NewPrinter(language.English)

var eventTypes = []listview.Option{
	{Value: "concert", Label: "Concert"},
	{Value: "drama", Label: "Drama"},
	{Value: "musical", Label: "Musical"},
	{Value: "opera", Label: "Opera"},
	{Value: "dance", Label: "Dance"},
	{Value: "exhibition", Label: "Exhibition"},
	{Value: "sports", Label: "Sports"},
}

var seatModes = []listview.Option{
	{Value: "online", Label: "Online seat selection"},
	{Value: "select", Label: "Choose your own seat"},
	{Value: "auto", Label: "Assigned automatically"},
}

var facilities = []listview.Option{
	{Value: "parking", Label: "Parking"},
	{Value: "wifi", Label: "Wi-Fi"},
	{Value: "restaurant", Label: "Restaurant"},
	{Value: "accessible", Label: "Step-free access"},
	{Value: "cloakroom", Label: "Cloakroom"},
	{Value: "vip_lounge", Label: "VIP lounge"},
}

// Facilities returns the venue facilities an admin can tick.
func Facilities() []listview.Option {
	return append([]listview.Option(nil), facilities...)
}

// EventTypes returns the known event types in display order.
func EventTypes() []listview.Option {
	return append([]listview.Option(nil), eventTypes...)
}

// SeatModes returns the seat selection modes in display order.
func SeatModes() []listview.Option {
	return append([]listview.Option(nil), seatModes...)
}

// EventTypeLabel returns the display name of an event type, or the raw value.
func EventTypeLabel(value string) string {
	return lookup(eventTypes, value)
}

// SeatModeLabel returns the display name of a seat selection mode, or the raw value.
func SeatModeLabel(value string) string {
	return lookup(seatModes, value)
}

func lookup(options []listview.Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

// CoverClass is the CSS class painting an event card cover.
func CoverClass(eventType string) string {
	switch eventType {
	case "concert", "drama", "musical", "opera", "dance", "exhibition", "sports":
		return "cover-" + eventType
	}
	return "cover-default"
}

// FormatNumber prints n with thousands separators.
func FormatNumber(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatPrice prints a price with the currency sign and no trailing zeros.
func FormatPrice(p float64) string {
	return "¥" + FormatAmount(p)
}

// PriceRange summarises tier prices as "¥min - ¥max", or "¥p" when they agree.
// Override prices win over base prices.
func PriceRange(tiers []Tier) string {
	var lo, hi float64
	seen := false
	for _, t := range tiers {
		p, ok := t.EffectivePrice()
		if !ok {
			continue
		}
		if !seen || p < lo {
			lo = p
		}
		if !seen || p > hi {
			hi = p
		}
		seen = true
	}
	if !seen {
		return placeholder
	}
	if lo == hi {
		return FormatPrice(lo)
	}
	return FormatPrice(lo) + " - " + FormatPrice(hi)
}

// MinPrice is the storefront "from" price.
func MinPrice(tiers []Tier) string {
	r := PriceRange(tiers)
	if i := strings.Index(r, " - "); i >= 0 {
		return r[:i]
	}
	return r
}

// SeatSummary is the seat column of the session list.
type SeatSummary struct {
	Available   string
	Sold        string
	Total       string
	SoldPercent int
}

func (s SeatSummary) String() string {
	return fmt.Sprintf("Available %s · Sold %s (%d%%) · Total %s", s.Available, s.Sold, s.SoldPercent, s.Total)
}

// Seats summarises the allocation of a session.
func Seats(s Session) SeatSummary {
	pct := 0
	if s.TotalSeats > 0 {
		pct = int(float64(s.SoldSeats)/float64(s.TotalSeats)*100 + 0.5)
	}
	return SeatSummary{
		Available:   FormatNumber(s.AvailableSeats),
		Sold:        FormatNumber(s.SoldSeats),
		Total:       FormatNumber(s.TotalSeats),
		SoldPercent: pct,
	}
}

// FormatDateTime renders API timestamps as "YYYY-MM-DD HH:mm".
func FormatDateTime(text string) string {
	ts, ok := forms.ParseTime(text)
	if !ok {
		return orPlaceholder(text)
	}
	return ts.Format("2006-01-02 15:04")
}

// FormatDate renders API dates as "YYYY-MM-DD".
func FormatDate(text string) string {
	ts, ok := forms.ParseTime(text)
	if !ok {
		return orPlaceholder(text)
	}
	return ts.Format(time.DateOnly)
}

func orPlaceholder(text string) string {
	if strings.TrimSpace(text) == "" {
		return placeholder
	}
	return text
}
