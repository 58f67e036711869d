package forms

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/spf13/cast"

	"github.com/taopiaopiao/boxoffice/internal/apiclient"
)

// ErrReadOnly is returned when a read-only form is submitted.
var ErrReadOnly = errors.New("forms: form is read-only")

// API is the subset of the HTTP client the controller needs.
type API interface {
	Get(ctx context.Context, path string, params any, out any) error
	Post(ctx context.Context, path string, body any, out any) error
	Put(ctx context.Context, path string, body any, out any) error
}

// Result describes a successful submit.
type Result struct {
	ID      string
	Created bool
}

// Controller loads and submits one entity kind.
type Controller struct {
	api    API
	path   string
	schema *Schema
}

// NewController builds a controller for the collection at path, e.g. "/venues".
func NewController(api API, path string, schema *Schema) *Controller {
	return &Controller{api: api, path: path, schema: schema}
}

// Schema exposes the field schema.
func (c *Controller) Schema() *Schema {
	return c.schema
}

// New returns a blank form with schema defaults.
func (c *Controller) New() *Form {
	return &Form{Values: c.schema.Defaults(), Errors: map[string]string{}, schema: c.schema}
}

// LoadForEdit fetches the entity and fills the form. In read-only mode the
// form can be displayed but never submitted.
func (c *Controller) LoadForEdit(ctx context.Context, id string, readOnly bool) (*Form, error) {
	var entity map[string]any
	if err := c.api.Get(ctx, c.itemPath(id), nil, &entity); err != nil {
		return nil, err
	}
	if entity == nil {
		entity = map[string]any{}
	}
	return &Form{
		ID:       id,
		ReadOnly: readOnly,
		Values:   c.schema.Populate(entity),
		Errors:   map[string]string{},
		Entity:   entity,
		schema:   c.schema,
	}, nil
}

// Bind wraps submitted values into a form, for submitting and re-rendering.
func (c *Controller) Bind(id string, values url.Values) *Form {
	copied := url.Values{}
	for k, v := range values {
		copied[k] = append([]string(nil), v...)
	}
	return &Form{ID: id, Values: copied, Errors: map[string]string{}, schema: c.schema}
}

// Submit validates the form and sends it: POST for new entities, PUT for
// existing ones. Validation failures never reach the network. On failure the
// form carries the messages to show next to the re-enabled submit button.
func (c *Controller) Submit(ctx context.Context, form *Form) (Result, error) {
	if form.ReadOnly {
		return Result{}, ErrReadOnly
	}
	payload, err := c.schema.Collect(form.Values)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			form.Errors = verr.Fields
			form.Error = "Please correct the highlighted fields."
		}
		return Result{}, err
	}

	if form.IsNew() {
		var created any
		if err := c.api.Post(ctx, c.path, payload, &created); err != nil {
			form.Error = apiclient.Message(err)
			return Result{}, err
		}
		return Result{ID: createdID(created), Created: true}, nil
	}
	if err := c.api.Put(ctx, c.itemPath(form.ID), payload, nil); err != nil {
		form.Error = apiclient.Message(err)
		return Result{}, err
	}
	return Result{ID: form.ID}, nil
}

func (c *Controller) itemPath(id string) string {
	return c.path + "/" + apiclient.EscapeID(id)
}

func createdID(v any) string {
	switch t := v.(type) {
	case map[string]any:
		if id, ok := t["id"]; ok {
			return cast.ToString(id)
		}
	case float64:
		return strconv.FormatInt(int64(t), 10)
	case string:
		return t
	}
	return ""
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
