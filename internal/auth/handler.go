package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
	"github.com/taopiaopiao/boxoffice/internal/authstore"
	"github.com/taopiaopiao/boxoffice/internal/shared"
	"github.com/taopiaopiao/boxoffice/internal/view"
)

const (
	// LoginURL is the admin sign-in page.
	LoginURL = "/admin/login"
	// HomeURL is where a sign-in lands without a next target.
	HomeURL = "/admin/events"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	revoker     authstore.Revoker
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance. revoker receives the best-effort
// logout call.
func NewHandler(logger *slog.Logger, service *Service, revoker authstore.Revoker, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		revoker:     revoker,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required"`
	Remember bool
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
	Next   string
}

var fieldLabels = map[string]string{
	"Username": "Username",
	"Password": "Password",
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	next := SafeNext(r.URL.Query().Get("next"))
	if authstore.FromContext(r.Context()).IsAuthenticated() {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, loginPageData{Next: next})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	next := SafeNext(r.PostFormValue("next"))

	form := loginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Remember: r.PostFormValue("remember") != "",
	}
	errs := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				errs[fieldErr.Field()] = fieldMessage(fieldErr)
			}
		}
	}

	if len(errs) == 0 {
		result, err := h.service.Authenticate(r.Context(), Credentials{Username: form.Username, Password: form.Password})
		if err == nil {
			store := authstore.FromContext(r.Context())
			err = store.Save(result.Token, result.UserInfo, form.Remember)
		}
		if err == nil {
			if sess != nil {
				h.csrfManager.Rotate(sess)
				sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back, " + result.UserInfo.DisplayName()})
			}
			h.logger.Info("admin signed in", slog.String("username", form.Username), slog.Bool("remember", form.Remember))
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
		h.logger.Warn("admin sign in failed", slog.String("username", form.Username), slog.Any("error", err))
		errs["general"] = loginFailure(err)
	}

	form.Password = ""
	h.render(w, r, http.StatusBadRequest, loginPageData{Form: form, Errors: errs, Next: next})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	store := authstore.FromContext(r.Context())
	if err := store.Logout(r.Context(), h.revoker); err != nil {
		h.logger.Warn("upstream logout", slog.Any("error", err))
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.csrfManager.Rotate(sess)
		sess.AddFlash(shared.FlashMessage{Kind: "info", Message: "You have signed out"})
	}
	http.Redirect(w, r, LoginURL, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data loginPageData) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	viewData := view.TemplateData{
		Title:       "Sign in",
		CSRFToken:   csrfToken,
		Flash:       sess.PopFlash(),
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Respond(w, status, "pages/admin/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func fieldMessage(fieldErr validator.FieldError) string {
	label := fieldLabels[fieldErr.Field()]
	switch fieldErr.Tag() {
	case "required":
		return label + " is required"
	case "max":
		return label + " is too long"
	}
	return label + " is invalid"
}

func loginFailure(err error) string {
	switch {
	case errors.Is(err, apiclient.ErrAuthExpired):
		return "Invalid username or password"
	case errors.Is(err, ErrMissingToken):
		return "Sign in failed, please try again"
	}
	return apiclient.Message(err)
}

// SafeNext keeps post-login redirects inside the admin console.
func SafeNext(next string) string {
	if next != "/admin" && !strings.HasPrefix(next, "/admin/") {
		return HomeURL
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" || u.Path == LoginURL {
		return HomeURL
	}
	return u.RequestURI()
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleLogoutForTest exposes the logout handler for tests.
func (h *Handler) HandleLogoutForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogout(w, r)
}
