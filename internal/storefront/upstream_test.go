package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
)

// upstream fakes the public ticketing API.
type upstream struct {
	mu           sync.Mutex
	hits         map[string]int
	queries      []string
	failSessions bool
	server       *httptest.Server
}

var (
	eventList = []map[string]any{
		{"id": 1, "name": "Jay Chou Carnival", "artist": "Jay Chou", "type": "concert", "city": "Shanghai", "venueName": "Mercedes-Benz Arena",
			"status": "on_sale", "priceRange": "¥380 - ¥1,280", "eventStartDate": "2026-11-01", "eventEndDate": "2026-11-03"},
		{"id": 2, "name": "Cats", "type": "musical", "city": "Beijing", "status": "sold_out", "priceRange": "¥280"},
	}
	eventDetail = map[string]any{
		"id": 1, "name": "Jay Chou Carnival", "artist": "Jay Chou", "type": "concert", "city": "Shanghai", "venueId": 5,
		"venueName": "Mercedes-Benz Arena", "status": "on_sale", "eventStartDate": "2026-11-01", "eventEndDate": "2026-11-03",
		"ticketTiers": []map[string]any{
			{"id": 11, "name": "VIP", "price": 1280},
			{"id": 12, "name": "Stand", "price": 380},
		},
	}
	sessionList = []map[string]any{
		{"id": 7, "eventId": 1, "sessionName": "Night one", "startTime": "2026-11-01T19:30:00", "venueName": "Mercedes-Benz Arena",
			"status": "on_sale", "totalSeats": 1000, "soldSeats": 250, "availableSeats": 750,
			"ticketTiers": []map[string]any{{"tierId": 11, "name": "VIP", "price": 1280}, {"tierId": 12, "name": "Stand", "overridePrice": 300}}},
	}
	venueList = []map[string]any{
		{"id": 5, "name": "Mercedes-Benz Arena", "city": "Shanghai", "district": "Pudong", "capacity": 18000},
	}
	venueDetail = map[string]any{
		"id": 5, "name": "Mercedes-Benz Arena", "city": "Shanghai", "district": "Pudong", "address": "1200 Expo Avenue",
		"capacity": 18000, "facilities": []string{"parking", "vip_lounge", "shuttle"},
	}
)

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{hits: map[string]int{}}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			u.mu.Lock()
			u.hits[req.URL.Path]++
			u.queries = append(u.queries, req.URL.RawQuery)
			u.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/events", func(w http.ResponseWriter, req *http.Request) {
		list := eventList
		if kind := req.URL.Query().Get("type"); kind != "" {
			list = nil
			for _, e := range eventList {
				if e["type"] == kind {
					list = append(list, e)
				}
			}
		}
		total := len(list)
		if req.URL.Query().Get("pageSize") == "1" {
			total = 2
			list = list[:1]
		}
		writeData(w, map[string]any{"list": list, "total": total})
	})
	r.Get("/api/events/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") != "1" {
			writeEnvelope(w, http.StatusNotFound, 404, "event not found", nil)
			return
		}
		writeData(w, eventDetail)
	})
	r.Get("/api/events/{id}/sessions", func(w http.ResponseWriter, req *http.Request) {
		u.mu.Lock()
		fail := u.failSessions
		u.mu.Unlock()
		if fail {
			writeEnvelope(w, http.StatusInternalServerError, 500, "sessions unavailable", nil)
			return
		}
		writeData(w, map[string]any{"list": sessionList, "total": len(sessionList)})
	})
	r.Get("/api/venues", func(w http.ResponseWriter, req *http.Request) {
		writeData(w, map[string]any{"list": venueList, "total": len(venueList)})
	})
	r.Get("/api/venues/{id}", func(w http.ResponseWriter, req *http.Request) {
		if chi.URLParam(req, "id") != "5" {
			writeEnvelope(w, http.StatusNotFound, 404, "venue not found", nil)
			return
		}
		writeData(w, venueDetail)
	})
	u.server = httptest.NewServer(r)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) client() *apiclient.Client {
	return apiclient.New(u.server.URL + "/api")
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func (u *upstream) lastQuery() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.queries) == 0 {
		return ""
	}
	return u.queries[len(u.queries)-1]
}

func writeData(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, 200, "ok", data)
}

func writeEnvelope(w http.ResponseWriter, status, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg, "data": data})
}
