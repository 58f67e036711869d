// Package admin serves the console pages that list, edit and change the
// status of events, sessions and venues.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cast"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/auth"
	"github.com/taopiaopiao/boxoffice/internal/authstore"
	"github.com/taopiaopiao/boxoffice/internal/forms"
	"github.com/taopiaopiao/boxoffice/internal/listview"
	"github.com/taopiaopiao/boxoffice/internal/shared"
	"github.com/taopiaopiao/boxoffice/internal/view"
)

// API is the part of the ticketing API client the console uses.
type API interface {
	listview.Fetcher
	forms.API
	Delete(ctx context.Context, path string) error
}

// Invalidator is told about every successful write so public caches refresh.
type Invalidator interface {
	Invalidate(ctx context.Context, entity, id string) error
}

// Handler serves the admin console.
type Handler struct {
	logger    *slog.Logger
	api       API
	templates *view.Engine
	csrf      *shared.CSRFManager
	auditor   shared.Auditor
	catalog   Invalidator
	resources map[string]*resource
}

// NewHandler builds the console handler. auditor and catalog may be nil.
func NewHandler(logger *slog.Logger, api API, templates *view.Engine, csrf *shared.CSRFManager, auditor shared.Auditor, catalog Invalidator, pageSize int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		api:       api,
		templates: templates,
		csrf:      csrf,
		auditor:   auditor,
		catalog:   catalog,
		resources: newResources(api, pageSize),
	}
}

// MountRoutes registers console routes. Callers guard them with auth.RequireLogin.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, auth.HomeURL, http.StatusFound)
	})
	r.Route("/{resource}", func(r chi.Router) {
		r.Use(h.resolve)
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/new", h.newForm)
		r.Get("/{id}", h.show)
		r.Post("/{id}", h.update)
		r.Get("/{id}/edit", h.edit)
		r.Get("/{id}/status", h.confirmStatus)
		r.Post("/{id}/status", h.changeStatus)
		r.Get("/{id}/delete", h.confirmDelete)
		r.Post("/{id}/delete", h.delete)
	})
}

type resourceKey struct{}

func (h *Handler) resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := h.resources[chi.URLParam(r, "resource")]
		if !ok {
			h.notFound(w, r, "This page does not exist.")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resourceKey{}, res)))
	})
}

func resourceFrom(r *http.Request) *resource {
	res, _ := r.Context().Value(resourceKey{}).(*resource)
	return res
}

func parseID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", shared.ErrInvalidID
	}
	return strconv.FormatInt(id, 10), nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	table, err := res.list(r.Context(), h, r.URL.Query())
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		h.logger.Warn("load list", slog.String("resource", res.name), slog.Any("error", err))
	}
	h.render(w, r, http.StatusOK, "pages/admin/list.html", res.title, map[string]any{
		"Title":  res.title,
		"Entity": res.entity,
		"Base":   res.base(),
		"Table":  table,
	})
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	form := res.form.New()
	query := r.URL.Query()
	for _, field := range res.form.Schema().Fields {
		if v := strings.TrimSpace(query.Get(field.Name)); v != "" {
			form.Set(field.Name, v)
		}
	}
	h.showForm(w, r, res, form, http.StatusOK)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	h.loadForm(w, r, true)
}

func (h *Handler) edit(w http.ResponseWriter, r *http.Request) {
	h.loadForm(w, r, false)
}

func (h *Handler) loadForm(w http.ResponseWriter, r *http.Request, readOnly bool) {
	res := resourceFrom(r)
	id, err := parseID(r)
	if err != nil {
		h.notFound(w, r, "This "+res.entity+" does not exist.")
		return
	}
	form, err := res.form.LoadForEdit(r.Context(), id, readOnly)
	if err != nil {
		h.fail(w, r, res, err, "load "+res.entity)
		return
	}
	h.showForm(w, r, res, form, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "")
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.notFound(w, r, "This page does not exist.")
		return
	}
	h.submit(w, r, id)
}

// submit handles both the save button and the in-form buttons that only
// rebuild the form, such as adding a ticket tier.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, id string) {
	res := resourceFrom(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := res.form.Bind(id, r.PostForm)
	if action := r.PostFormValue("_action"); action != "" && res.act(form, action) {
		h.showForm(w, r, res, form, http.StatusOK)
		return
	}

	result, err := res.form.Submit(r.Context(), form)
	if err != nil {
		if h.expired(w, r, err) {
			return
		}
		var verr *forms.ValidationError
		status := http.StatusUnprocessableEntity
		if !errors.As(err, &verr) {
			status = http.StatusBadRequest
			h.logger.Warn("save "+res.entity, slog.String("id", id), slog.Any("error", err))
		}
		h.showForm(w, r, res, form, status)
		return
	}

	verb, message := "update", res.label()+" saved"
	if result.Created {
		verb, message = "create", res.label()+" created"
	}
	h.written(r, res, verb, result.ID, nil)
	h.redirectWithFlash(w, r, res.listURL(res.backQuery(r.PostFormValue("back"))), "success", message)
}

type formPage struct {
	Title     string
	Form      *forms.Form
	Options   map[string][]listview.Option
	Action    string
	Base      string
	Back      string
	BackQuery string
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request, res *resource, form *forms.Form, status int) {
	options, err := res.prepare(r.Context(), h, form)
	if err != nil && h.expired(w, r, err) {
		return
	}
	back := res.backQuery(backValue(r))
	title := "New " + res.entity
	action := res.base()
	switch {
	case form.ReadOnly:
		title = res.label() + " #" + form.ID
		action = ""
	case !form.IsNew():
		title = "Edit " + res.entity + " #" + form.ID
		action = res.base() + "/" + form.ID
	}
	h.render(w, r, status, res.template, title, formPage{
		Title:     title,
		Form:      form,
		Options:   options,
		Action:    action,
		Base:      res.base(),
		Back:      res.listURL(back),
		BackQuery: back,
	})
}

type confirmPage struct {
	Danger    bool
	Heading   string
	Subject   string
	Message   string
	Action    string
	Target    string
	BackQuery string
	Label     string
	Back      string
}

func (h *Handler) confirmStatus(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	id, entity, ok := h.fetch(w, r, res)
	if !ok {
		return
	}
	back := res.backQuery(r.URL.Query().Get("back"))
	status, sold := h.state(res, entity)
	action, allowed := res.rules.Transition(status, r.URL.Query().Get("to"), sold)
	if !allowed {
		h.redirectWithFlash(w, r, res.listURL(back), "error", "This action is not available for the current status")
		return
	}
	h.render(w, r, http.StatusOK, "pages/admin/confirm.html", action.Label, confirmPage{
		Heading:   action.Label + " " + res.entity,
		Subject:   subject(entity, id),
		Message:   action.Confirm,
		Action:    res.base() + "/" + id + "/status",
		Target:    action.Target,
		BackQuery: back,
		Label:     action.Label,
		Back:      res.listURL(back),
	})
}

// changeStatus re-checks the transition against the entity as it is now,
// since the list the admin clicked on may be stale.
func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	id, entity, ok := h.fetch(w, r, res)
	if !ok {
		return
	}
	back := res.listURL(res.backQuery(r.PostFormValue("back")))
	status, sold := h.state(res, entity)
	target := r.PostFormValue("to")
	if _, allowed := res.rules.Transition(status, target, sold); !allowed {
		h.redirectWithFlash(w, r, back, "error", "This action is not available for the current status")
		return
	}
	path := res.path + "/" + apiclient.EscapeID(id) + "/status"
	if err := h.api.Put(r.Context(), path, map[string]string{"status": target}, nil); err != nil {
		if h.expired(w, r, err) {
			return
		}
		h.logger.Warn("change status", slog.String("resource", res.name), slog.String("id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, back, "error", apiclient.Message(err))
		return
	}
	h.written(r, res, "status", id, map[string]any{"from": status, "to": target})
	badge := res.rules.Badge(target)
	h.redirectWithFlash(w, r, back, "success", res.label()+" is now "+badge.Label)
}

func (h *Handler) confirmDelete(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	id, entity, ok := h.fetch(w, r, res)
	if !ok {
		return
	}
	back := res.backQuery(r.URL.Query().Get("back"))
	status, sold := h.state(res, entity)
	action, allowed := res.rules.Deletion(status, sold)
	if !allowed {
		h.redirectWithFlash(w, r, res.listURL(back), "error", "This "+res.entity+" cannot be deleted")
		return
	}
	h.render(w, r, http.StatusOK, "pages/admin/confirm.html", "Delete "+res.entity, confirmPage{
		Danger:    true,
		Heading:   "Delete " + res.entity,
		Subject:   subject(entity, id),
		Message:   action.Confirm,
		Action:    res.base() + "/" + id + "/delete",
		BackQuery: back,
		Label:     action.Label,
		Back:      res.listURL(back),
	})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	id, entity, ok := h.fetch(w, r, res)
	if !ok {
		return
	}
	back := res.listURL(res.backQuery(r.PostFormValue("back")))
	status, sold := h.state(res, entity)
	if _, allowed := res.rules.Deletion(status, sold); !allowed {
		h.redirectWithFlash(w, r, back, "error", "This "+res.entity+" cannot be deleted")
		return
	}
	if err := h.api.Delete(r.Context(), res.path+"/"+apiclient.EscapeID(id)); err != nil {
		if h.expired(w, r, err) {
			return
		}
		h.logger.Warn("delete", slog.String("resource", res.name), slog.String("id", id), slog.Any("error", err))
		h.redirectWithFlash(w, r, back, "error", apiclient.Message(err))
		return
	}
	h.written(r, res, "delete", id, nil)
	h.redirectWithFlash(w, r, back, "success", res.label()+" deleted")
}

// fetch loads the entity addressed by the request. It answers the request
// itself when the entity cannot be loaded.
func (h *Handler) fetch(w http.ResponseWriter, r *http.Request, res *resource) (string, map[string]any, bool) {
	id, err := parseID(r)
	if err != nil {
		h.notFound(w, r, "This "+res.entity+" does not exist.")
		return "", nil, false
	}
	var entity map[string]any
	if err := h.api.Get(r.Context(), res.path+"/"+apiclient.EscapeID(id), nil, &entity); err != nil {
		h.fail(w, r, res, err, "fetch "+res.entity)
		return "", nil, false
	}
	return id, entity, true
}

func (h *Handler) state(res *resource, entity map[string]any) (string, int) {
	status := cast.ToString(entity["status"])
	sold := 0
	if res.soldKey != "" {
		sold = cast.ToInt(entity[res.soldKey])
	}
	return status, sold
}

func subject(entity map[string]any, id string) string {
	for _, key := range []string{"name", "sessionName"} {
		if v := strings.TrimSpace(cast.ToString(entity[key])); v != "" {
			return v
		}
	}
	return "#" + id
}

// written records the audit entry and refreshes the public catalogue after a
// successful write. Neither may fail the request.
func (h *Handler) written(r *http.Request, res *resource, verb, id string, meta map[string]any) {
	ctx := r.Context()
	if h.auditor != nil {
		entry := shared.AuditLog{Action: verb, Entity: res.entity, EntityID: id, Meta: meta}
		if user := authstore.FromContext(ctx).UserInfo(); user != nil {
			entry.ActorID = user.ID
			entry.Actor = user.Username
		}
		if err := h.auditor.Record(ctx, entry); err != nil {
			h.logger.Warn("record audit", slog.String("resource", res.name), slog.Any("error", err))
		}
	}
	if h.catalog != nil {
		if err := h.catalog.Invalidate(ctx, res.entity, id); err != nil {
			h.logger.Warn("invalidate catalogue", slog.String("resource", res.name), slog.Any("error", err))
		}
	}
}

// expired sends the admin back to the login page when the API rejected the
// credentials. It reports whether the request was answered.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !apiclient.IsAuthExpired(err) {
		return false
	}
	authstore.ClearFromContext(r.Context())
	target := auth.LoginURL
	if r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	h.redirectWithFlash(w, r, target, "warning", "Your session has expired, please sign in again")
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, res *resource, err error, op string) {
	if h.expired(w, r, err) {
		return
	}
	if apiclient.IsNotFound(err) {
		h.notFound(w, r, "This "+res.entity+" does not exist.")
		return
	}
	h.logger.Warn(op, slog.Any("error", err))
	back := res.listURL(res.backQuery(backValue(r)))
	h.redirectWithFlash(w, r, back, "error", apiclient.Message(err))
}

func backValue(r *http.Request) string {
	if r.Method == http.MethodPost {
		return r.PostFormValue("back")
	}
	return r.URL.Query().Get("back")
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request, message string) {
	h.render(w, r, http.StatusNotFound, "pages/error.html", "Not found", map[string]any{
		"Heading": "Not found",
		"Message": message,
		"Back":    auth.HomeURL,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	ctx := r.Context()
	sess := shared.SessionFromContext(ctx)
	csrfToken, _ := h.csrf.EnsureToken(ctx, sess)
	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		User:        authstore.FromContext(ctx).UserInfo(),
		Data:        data,
	}
	if err := h.templates.Respond(w, status, name, viewData); err != nil {
		h.logger.Error("render admin page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
