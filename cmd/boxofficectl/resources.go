package main

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/listview"
	"github.com/taopiaopiao/boxoffice/internal/ticketing"
)

type loadFunc func(ctx context.Context, f listview.Fetcher, q url.Values, pageSize int) (listview.Table, error)

// resource is one catalogue collection the tool can operate on.
type resource struct {
	name    string
	path    string
	soldKey string
	filters []listview.Filter
	load    loadFunc
	rules   rules
}

type rules interface {
	Entity() string
	Allows(status, target string, sold int) bool
	CanDelete(status string, sold int) bool
	ConfirmText(target string) string
	DeleteText() string
	Badge(status string) actions.Badge
}

type statusRules[S ~string] struct {
	table *actions.Table[S]
}

func (r statusRules[S]) Entity() string { return r.table.Entity() }

func (r statusRules[S]) Allows(status, target string, sold int) bool {
	return target != "" && r.table.Allows(S(status), S(target), sold)
}

func (r statusRules[S]) CanDelete(status string, sold int) bool {
	return r.table.CanDelete(S(status), sold)
}

func (r statusRules[S]) ConfirmText(target string) string { return r.table.ConfirmText(S(target)) }

func (r statusRules[S]) DeleteText() string { return r.table.DeleteText() }

func (r statusRules[S]) Badge(status string) actions.Badge { return r.table.Badge(S(status)) }

func loader[T any](config func(pageSize int) listview.Config[T]) loadFunc {
	return func(ctx context.Context, f listview.Fetcher, q url.Values, pageSize int) (listview.Table, error) {
		ctrl := listview.New(f, config(pageSize))
		return ctrl.Load(ctx, listview.FromQuery(q, ctrl.Filters()))
	}
}

var resources = map[string]*resource{
	"events": {
		name:    "events",
		path:    ticketing.EventsPath,
		soldKey: "soldCount",
		filters: ticketing.EventList(0).Filters,
		load:    loader(ticketing.EventList),
		rules:   statusRules[ticketing.EventStatus]{table: ticketing.EventActions},
	},
	"sessions": {
		name:    "sessions",
		path:    ticketing.SessionsPath,
		soldKey: "soldSeats",
		filters: ticketing.SessionList(0).Filters,
		load:    loader(ticketing.SessionList),
		rules:   statusRules[ticketing.SessionStatus]{table: ticketing.SessionActions},
	},
	"venues": {
		name:    "venues",
		path:    ticketing.VenuesPath,
		filters: ticketing.VenueList(0).Filters,
		load:    loader(ticketing.VenueList),
		rules:   statusRules[ticketing.VenueStatus]{table: ticketing.VenueActions},
	},
}

func lookup(name string) (*resource, error) {
	if res, ok := resources[strings.ToLower(name)]; ok {
		return res, nil
	}
	return nil, usageErrorf("unknown resource %q (want %s)", name, resourceNames())
}

func resourceNames() string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (res *resource) hasFilter(key string) bool {
	for _, f := range res.filters {
		if f.Key == key {
			return true
		}
	}
	return false
}

// label is the entity name with an upper-case initial.
func (res *resource) label() string {
	entity := res.rules.Entity()
	if entity == "" {
		return res.name
	}
	return strings.ToUpper(entity[:1]) + entity[1:]
}

func (res *resource) entityPath(id string) string {
	return fmt.Sprintf("%s/%s", res.path, url.PathEscape(id))
}
