package admin

import (
	"context"
	"net/url"
	"strings"

	"github.com/taopiaopiao/boxoffice/internal/actions"
	"github.com/taopiaopiao/boxoffice/internal/forms"
	"github.com/taopiaopiao/boxoffice/internal/listview"
)

// resource is one admin-managed collection: its list, its form and the
// status rules that decide which row actions are offered.
type resource struct {
	name     string
	entity   string
	title    string
	path     string
	template string
	soldKey  string
	filters  []listview.Filter
	form     *forms.Controller
	rules    rules
	list     func(ctx context.Context, h *Handler, q url.Values) (listview.Table, error)
	prepare  func(ctx context.Context, h *Handler, form *forms.Form) (map[string][]listview.Option, error)
	act      func(form *forms.Form, action string) bool
}

// base is the console URL of the collection.
func (res *resource) base() string {
	return "/admin/" + res.name
}

// label is the entity name with an upper-case initial, for flash messages.
func (res *resource) label() string {
	if res.entity == "" {
		return ""
	}
	return strings.ToUpper(res.entity[:1]) + res.entity[1:]
}

// backQuery keeps only the list state keys of a submitted back value, so a
// crafted value can never steer the redirect off the list page.
func (res *resource) backQuery(raw string) string {
	parsed, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	out := url.Values{}
	for _, f := range res.filters {
		if v := strings.TrimSpace(parsed.Get(f.Key)); v != "" {
			out.Set(f.Key, v)
		}
	}
	if page := parsed.Get("page"); page != "" && page != "1" {
		out.Set("page", page)
	}
	return out.Encode()
}

// listURL is the list page the user came from.
func (res *resource) listURL(backQuery string) string {
	if backQuery == "" {
		return res.base()
	}
	return res.base() + "?" + backQuery
}

// rules is the non-generic view of an actions.Table used by the handlers.
type rules interface {
	Transition(status, target string, sold int) (actions.Action, bool)
	Deletion(status string, sold int) (actions.Action, bool)
	Badge(status string) actions.Badge
}

type tableRules[S ~string] struct {
	table *actions.Table[S]
}

func (r tableRules[S]) Transition(status, target string, sold int) (actions.Action, bool) {
	if target == "" {
		return actions.Action{}, false
	}
	for _, a := range r.table.ActionsFor(S(status), sold) {
		if a.Kind == actions.KindConfirm && a.Target == target {
			return a, true
		}
	}
	return actions.Action{}, false
}

func (r tableRules[S]) Deletion(status string, sold int) (actions.Action, bool) {
	for _, a := range r.table.ActionsFor(S(status), sold) {
		if a.Kind == actions.KindDelete {
			return a, true
		}
	}
	return actions.Action{}, false
}

func (r tableRules[S]) Badge(status string) actions.Badge {
	return r.table.Badge(S(status))
}

func listLoader[T any](ctrl *listview.Controller[T]) func(ctx context.Context, h *Handler, q url.Values) (listview.Table, error) {
	return func(ctx context.Context, _ *Handler, q url.Values) (listview.Table, error) {
		return ctrl.Load(ctx, listview.FromQuery(q, ctrl.Filters()))
	}
}
