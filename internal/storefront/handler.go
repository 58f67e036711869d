package storefront

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"
	"golang.org/x/sync/errgroup"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/listview"
	"github.com/taopiaopiao/boxoffice/internal/platform/httpx"
	"github.com/taopiaopiao/boxoffice/internal/shared"
	"github.com/taopiaopiao/boxoffice/internal/ticketing"
	"github.com/taopiaopiao/boxoffice/internal/view"
)

const unavailable = "Shows could not be loaded right now, please try again in a moment."

// Handler serves the public pages.
type Handler struct {
	logger    *slog.Logger
	catalog   *Catalog
	templates *view.Engine
	venues    *listview.Controller[ticketing.Venue]
}

// NewHandler builds the storefront handler.
func NewHandler(logger *slog.Logger, catalog *Catalog, templates *view.Engine, pageSize int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		catalog:   catalog,
		templates: templates,
		venues:    listview.New(catalog, ticketing.VenueList(pageSize)),
	}
}

// MountRoutes registers the public routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/events/{id}", h.event)
	r.Get("/venues", h.venueList)
	r.Get("/venues/{id}", h.venue)
	r.Get("/api/events", h.eventsJSON)
}

type sessionRow struct {
	Session ticketing.Session
	Price   string
	Seats   ticketing.SeatSummary
	Badge   actions.Badge
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	eventType := strings.TrimSpace(q.Get("type"))
	page := max(cast.ToInt(q.Get("page")), 1)

	data := map[string]any{
		"Types":     ticketing.EventTypes(),
		"Type":      eventType,
		"PageSize":  h.catalog.PageSize(),
		"Page":      page,
		"RetryHref": r.URL.RequestURI(),
	}
	result, err := h.catalog.Events(r.Context(), EventQuery{Type: eventType, Page: page})
	if err != nil {
		h.logger.Warn("load event grid", slog.String("type", eventType), slog.Any("error", err))
		data["Error"] = unavailable
		h.render(w, r, http.StatusServiceUnavailable, "pages/storefront/home.html", "What's on", data)
		return
	}
	data["Events"] = cards(result.Events)
	data["HasMore"] = result.HasMore()
	data["NextHref"] = nextHref(eventType, result.Page+1)
	h.render(w, r, http.StatusOK, "pages/storefront/home.html", "What's on", data)
}

type eventsResponse struct {
	Events   []EventCard `json:"events"`
	Page     int         `json:"page"`
	Total    int         `json:"total"`
	HasMore  bool        `json:"hasMore"`
	NextHref string      `json:"nextHref,omitempty"`
}

func (h *Handler) eventsJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := EventQuery{
		Type:     strings.TrimSpace(q.Get("type")),
		Page:     cast.ToInt(q.Get("page")),
		PageSize: cast.ToInt(q.Get("pageSize")),
	}
	result, err := h.catalog.Events(r.Context(), query)
	if err != nil {
		h.logger.Warn("load event page", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := eventsResponse{
		Events:  cards(result.Events),
		Page:    result.Page,
		Total:   result.Total,
		HasMore: result.HasMore(),
	}
	if resp.HasMore {
		resp.NextHref = nextHref(query.Type, result.Page+1)
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func nextHref(eventType string, page int) string {
	q := url.Values{}
	if eventType != "" {
		q.Set("type", eventType)
	}
	q.Set("page", strconv.Itoa(page))
	return "/?" + q.Encode()
}

func (h *Handler) event(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.notFound(w, r, "This show does not exist.")
		return
	}

	var (
		event       ticketing.Event
		sessions    []ticketing.Session
		sessionsErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		event, err = h.catalog.Event(ctx, id)
		return err
	})
	g.Go(func() error {
		sessions, sessionsErr = h.catalog.EventSessions(ctx, id)
		return nil
	})
	if err := g.Wait(); err != nil {
		if apiclient.IsNotFound(err) {
			h.notFound(w, r, "This show does not exist.")
			return
		}
		h.logger.Warn("load event", slog.String("id", id), slog.Any("error", err))
		h.unavailable(w, r)
		return
	}

	data := map[string]any{
		"Event":      event,
		"Badge":      ticketing.EventActions.Badge(event.Status),
		"Dates":      eventDates(event),
		"PriceRange": eventPrice(event),
		"Sessions":   sessionRows(sessions),
	}
	if sessionsErr != nil {
		h.logger.Warn("load event sessions", slog.String("id", id), slog.Any("error", sessionsErr))
		data["SessionsError"] = "Sessions could not be loaded right now."
	}
	h.render(w, r, http.StatusOK, "pages/storefront/event.html", event.Name, data)
}

func eventPrice(e ticketing.Event) string {
	if len(e.TicketTiers) > 0 {
		return ticketing.PriceRange(e.TicketTiers)
	}
	if e.PriceRange != "" {
		return e.PriceRange
	}
	return "-"
}

func sessionRows(sessions []ticketing.Session) []sessionRow {
	rows := make([]sessionRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, sessionRow{
			Session: s,
			Price:   ticketing.PriceRange(s.Tiers()),
			Seats:   ticketing.Seats(s),
			Badge:   ticketing.SessionActions.Badge(s.Status),
		})
	}
	return rows
}

func (h *Handler) venueList(w http.ResponseWriter, r *http.Request) {
	state := listview.FromQuery(r.URL.Query(), h.venues.Filters())
	table, err := h.venues.Load(r.Context(), state)
	if err != nil {
		h.logger.Warn("load venues", slog.Any("error", err))
	}
	publicRows(table, "/venues/")
	h.render(w, r, http.StatusOK, "pages/storefront/venues.html", "Venues", map[string]any{
		"Table": table,
	})
}

// publicRows keeps only the View action and links the name cell to the
// detail page.
func publicRows(table listview.Table, base string) {
	for i := range table.Rows {
		row := &table.Rows[i]
		kept := row.Actions[:0]
		for _, a := range row.Actions {
			if a.Kind == actions.KindView {
				kept = append(kept, a)
			}
		}
		row.Actions = kept
		if len(row.Cells) > 1 {
			row.Cells[1].Link = base + strconv.FormatInt(row.ID, 10)
		}
	}
}

func (h *Handler) venue(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.notFound(w, r, "This venue does not exist.")
		return
	}
	venue, err := h.catalog.Venue(r.Context(), id)
	if err != nil {
		if apiclient.IsNotFound(err) {
			h.notFound(w, r, "This venue does not exist.")
			return
		}
		h.logger.Warn("load venue", slog.String("id", id), slog.Any("error", err))
		h.unavailable(w, r)
		return
	}
	h.render(w, r, http.StatusOK, "pages/storefront/venue.html", venue.Name, map[string]any{
		"Venue":      venue,
		"Capacity":   capacity(venue),
		"Facilities": facilityLabels(venue.Facilities),
	})
}

func capacity(v ticketing.Venue) string {
	if v.Capacity == nil || *v.Capacity <= 0 {
		return "-"
	}
	return ticketing.FormatNumber(*v.Capacity) + " seats"
}

func facilityLabels(values []string) []string {
	labels := make(map[string]string)
	for _, opt := range ticketing.Facilities() {
		labels[opt.Value] = opt.Label
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if label, ok := labels[v]; ok {
			out = append(out, label)
			continue
		}
		out = append(out, v)
	}
	return out
}

func parseID(r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, message string) {
	h.render(w, r, http.StatusNotFound, "pages/error.html", "Not found", map[string]any{
		"Heading": "Not found",
		"Message": message,
		"Back":    "/",
	})
}

func (h *Handler) unavailable(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusServiceUnavailable, "pages/error.html", "Unavailable", map[string]any{
		"Heading": "Temporarily unavailable",
		"Message": unavailable,
		"Back":    r.URL.RequestURI(),
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	viewData := view.TemplateData{
		Title:       title,
		Flash:       shared.SessionFromContext(r.Context()).PopFlash(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Respond(w, status, name, viewData); err != nil {
		h.logger.Error("render storefront page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

var _ listview.Fetcher = (*Catalog)(nil)
