package ticketing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/taopiaopiao/boxoffice/internal/forms"
)

// TierGroup is the control name prefix of ticket tier rows.
const TierGroup = "ticket_tiers"

// VenueSchema is the venue form.
func VenueSchema() *forms.Schema {
	return &forms.Schema{
		Fields: []forms.Field{
			{Name: "name", Label: "Name", Required: true},
			{Name: "city", Label: "City", Required: true},
			{Name: "district", Label: "District"},
			{Name: "address", Label: "Address", Required: true},
			{Name: "capacity", Label: "Capacity", Type: forms.Int, Empty: forms.EmptyNull, Rules: "gte=0"},
			{Name: "latitude", Label: "Latitude", Type: forms.Float, Empty: forms.EmptyNull, Rules: "gte=-90,lte=90"},
			{Name: "longitude", Label: "Longitude", Type: forms.Float, Empty: forms.EmptyNull, Rules: "gte=-180,lte=180"},
			{Name: "images", Label: "Images", Empty: forms.EmptyOmit},
			{Name: "description", Label: "Description", Empty: forms.EmptyOmit},
			{Name: "facilities", Label: "Facilities", Type: forms.List, Empty: forms.EmptyOmit},
		},
	}
}

// EventSchema is the event form with its ticket tiers.
func EventSchema() *forms.Schema {
	return &forms.Schema{
		Fields: []forms.Field{
			{Name: "name", Label: "Name", Required: true},
			{Name: "type", Label: "Type", Required: true},
			{Name: "artist", Label: "Artist", Required: true},
			{Name: "city", Label: "City", Required: true},
			{Name: "venueId", Label: "Venue", Type: forms.Int, Empty: forms.EmptyNull},
			{Name: "subtitle", Label: "Subtitle"},
			{Name: "eventStartDate", Label: "Start date", Type: forms.Date, Empty: forms.EmptyNull},
			{Name: "eventEndDate", Label: "End date", Type: forms.Date, Empty: forms.EmptyNull},
			{Name: "duration", Label: "Duration", Type: forms.Int, Empty: forms.EmptyNull, Rules: "gte=0"},
			{Name: "saleStartTime", Label: "Sale start", Type: forms.DateTime, Empty: forms.EmptyNull},
			{Name: "saleEndTime", Label: "Sale end", Type: forms.DateTime, Empty: forms.EmptyNull},
			{Name: "coverImage", Label: "Cover image"},
			{Name: "images", Label: "Images"},
			{Name: "description", Label: "Description"},
			{Name: "metadata.tips", Label: "Tips"},
			{Name: "metadata.refundPolicy", Label: "Refund policy"},
			{Name: "status", Label: "Status", Empty: forms.EmptyDefault, Default: string(EventDraft)},
			{Name: "tags", Label: "Tags", Type: forms.List},
		},
		Groups: []forms.Group{{
			Name: TierGroup,
			Path: "ticketTiers",
			Fields: []forms.Field{
				{Name: "name", Label: "Tier name"},
				{Name: "price", Label: "Price", Type: forms.Float, Empty: forms.EmptyNull, Rules: "gte=0"},
				{Name: "color", Label: "Color", Empty: forms.EmptyDefault, Default: "#FF5722", Rules: "hexcolor"},
				{Name: "maxPurchase", Label: "Purchase limit", Type: forms.Int, Empty: forms.EmptyDefault, Default: 4, Rules: "gte=1"},
				{Name: "description", Label: "Tier description"},
			},
			Keep: func(row map[string]any) bool {
				return row["name"] != "" && row["price"] != nil
			},
		}},
		Compose: func(values url.Values, payload map[string]any, errs *forms.ValidationError) {
			start, _ := payload["eventStartDate"].(string)
			end, _ := payload["eventEndDate"].(string)
			if start != "" && end != "" && end < start {
				errs.Add("eventEndDate", "End date must not be before the start date")
			}
		},
	}
}

// SessionSchema is the session form. Date and clock controls are combined
// into the startTime and endTime timestamps, and seat totals are derived
// from the tier allocation.
func SessionSchema() *forms.Schema {
	return &forms.Schema{
		Fields: []forms.Field{
			{Name: "eventId", Label: "Event", Type: forms.Int, Required: true},
			{Name: "sessionName", Label: "Session name", Required: true},
			{Name: "sessionDate", Label: "Session date", Type: forms.Date, Required: true, Transient: true},
			{Name: "startTime", Label: "Start time", Type: forms.Time, Required: true, Transient: true},
			{Name: "endTime", Label: "End time", Type: forms.Time, Transient: true},
			{Name: "useCustomPricing", Label: "Custom pricing", Type: forms.Bool, Transient: true},
			{Name: "venueId", Label: "Venue", Type: forms.Int, Empty: forms.EmptyNull},
			{Name: "hallName", Label: "Hall"},
			{Name: "address", Label: "Address"},
			{Name: "metadata.duration", Label: "Duration", Type: forms.Int, Empty: forms.EmptyDefault, Default: 120, Rules: "gte=0"},
			{Name: "metadata.saleStartTime", Label: "Sale start", Type: forms.DateTime, Empty: forms.EmptyNull},
			{Name: "metadata.saleEndTime", Label: "Sale end", Type: forms.DateTime, Empty: forms.EmptyNull},
			{Name: "metadata.seatSelectionMode", Label: "Seat selection", Empty: forms.EmptyDefault, Default: "online"},
			{Name: "metadata.requireRealName", Label: "Real-name tickets", Type: forms.Bool},
			{Name: "metadata.limitOnePerPerson", Label: "One per person", Type: forms.Bool},
			{Name: "metadata.noRefund", Label: "No refunds", Type: forms.Bool},
			{Name: "metadata.sortOrder", Label: "Sort order", Type: forms.Int, Empty: forms.EmptyDefault, Default: 0},
			{Name: "metadata.remark", Label: "Remark"},
			{Name: "status", Label: "Status", Empty: forms.EmptyDefault, Default: string(SessionNotStarted)},
		},
		Groups: []forms.Group{{
			Name: TierGroup,
			Path: "ticketTierConfig",
			Fields: []forms.Field{
				{Name: "tierId", Label: "Tier", Type: forms.Int},
				{Name: "name", Transient: true},
				{Name: "description", Transient: true},
				{Name: "basePrice", Label: "Base price", Type: forms.Float, Empty: forms.EmptyNull},
				{Name: "overridePrice", Label: "Custom price", Type: forms.Float, Empty: forms.EmptyNull, Rules: "gte=0"},
				{Name: "seatCount", Label: "Seats", Type: forms.Int, Empty: forms.EmptyDefault, Default: 0, Rules: "gte=0"},
				{Name: "availableSeats", Label: "Available seats", Type: forms.Int, Empty: forms.EmptyDefault, Default: 0, Rules: "gte=0"},
				{Name: "maxPurchase", Label: "Purchase limit", Type: forms.Int, Empty: forms.EmptyDefault, Default: 4, Rules: "gte=1"},
				{Name: "enabled", Type: forms.Bool},
			},
			Keep: func(row map[string]any) bool {
				return row["tierId"] != nil
			},
		}},
		Compose: composeSession,
		Split:   splitSession,
	}
}

func composeSession(values url.Values, payload map[string]any, errs *forms.ValidationError) {
	date := strings.TrimSpace(values.Get("sessionDate"))
	start := clock(values.Get("startTime"))
	if date != "" && start != "" {
		payload["startTime"] = date + "T" + start + ":00"
	}
	payload["endTime"] = nil
	if end := clock(values.Get("endTime")); date != "" && end != "" {
		payload["endTime"] = date + "T" + end + ":00"
	}

	rows, _ := payload["ticketTierConfig"].([]map[string]any)
	custom := values.Get("useCustomPricing") != ""
	total, available := 0, 0
	for _, row := range rows {
		if !custom {
			row["overridePrice"] = nil
		}
		total += cast.ToInt(row["seatCount"])
		if cast.ToBool(row["enabled"]) {
			available += cast.ToInt(row["availableSeats"])
		}
	}
	payload["totalSeats"] = total
	payload["availableSeats"] = available
	if total <= 0 {
		errs.Add(TierGroup, "Assign seats to at least one ticket tier")
	}
}

// clock normalises "19:30" and "19:30:00" to "19:30".
func clock(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 5 {
		text = text[:5]
	}
	return text
}

func splitSession(entity map[string]any, values url.Values) {
	if start := cast.ToString(entity["startTime"]); start != "" {
		values.Set("sessionDate", forms.Format(forms.Date, start))
		values.Set("startTime", forms.Format(forms.Time, start))
	}
	if end := cast.ToString(entity["endTime"]); end != "" {
		values.Set("endTime", forms.Format(forms.Time, end))
	}

	items, _ := entity["ticketTierConfig"].([]any)
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			continue
		}
		// A missing flag means the tier is enabled.
		if enabled, set := row["enabled"]; !set || enabled == nil {
			values.Set(sessionTierControl(i, "enabled"), "on")
		}
		if row["overridePrice"] != nil {
			values.Set("useCustomPricing", "on")
		}
	}
}

func sessionTierControl(index int, field string) string {
	return forms.Group{Name: TierGroup}.ControlName(index, field)
}

// ApplyEventTiers rebuilds the tier rows of a session form from the event's
// catalogue tiers, one row per tier. Allocation already present in the form
// for the same tier id is kept, so saved configuration and re-rendered
// submissions survive the rebuild.
func ApplyEventTiers(form *forms.Form, tiers []Tier) {
	prior := make(map[string]map[string]string)
	for _, row := range form.Rows(TierGroup) {
		id := row.Value("tierId")
		if id == "" {
			continue
		}
		prior[id] = map[string]string{
			"seatCount":      row.Value("seatCount"),
			"availableSeats": row.Value("availableSeats"),
			"maxPurchase":    row.Value("maxPurchase"),
			"overridePrice":  row.Value("overridePrice"),
			"enabled":        row.Value("enabled"),
		}
	}
	form.ClearGroup(TierGroup)

	for i, tier := range tiers {
		id := tier.ID
		if id == 0 {
			id = tier.TierID
		}
		key := strconv.FormatInt(id, 10)
		set := func(field, value string) {
			if value != "" {
				form.SetRow(TierGroup, i, field, value)
			}
		}
		price, _ := tier.EffectivePrice()
		available := tier.AvailableSeats
		if available == 0 {
			available = tier.MaxSeats
		}
		maxPurchase := tier.MaxPurchase
		if maxPurchase == 0 {
			maxPurchase = 4
		}

		set("tierId", key)
		set("name", tier.Name)
		set("description", tier.Description)
		set("basePrice", FormatAmount(price))

		if p, ok := prior[key]; ok {
			set("seatCount", p["seatCount"])
			set("availableSeats", p["availableSeats"])
			set("maxPurchase", p["maxPurchase"])
			set("overridePrice", p["overridePrice"])
			set("enabled", p["enabled"])
			continue
		}
		set("seatCount", strconv.Itoa(tier.MaxSeats))
		set("availableSeats", strconv.Itoa(available))
		set("maxPurchase", strconv.Itoa(maxPurchase))
		set("enabled", "on")
	}
}

// FormatAmount prints a number without trailing zeros, as inputs expect.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
