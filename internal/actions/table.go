// Package actions maps an entity status to the row actions an operator may take.
package actions

// Kind classifies how an action is carried out.
type Kind string

const (
	KindView    Kind = "view"
	KindEdit    Kind = "edit"
	KindConfirm Kind = "confirm"
	KindDelete  Kind = "delete"
)

// Action is one rendered row action.
type Action struct {
	Kind    Kind
	Label   string
	Target  string
	Confirm string
	Style   string
}

// NeedsConfirmation reports whether the action must be confirmed before it runs.
func (a Action) NeedsConfirmation() bool {
	return a.Kind == KindConfirm || a.Kind == KindDelete
}

// Spec declares an action inside a transition table.
type Spec[S ~string] struct {
	Kind   Kind
	Label  string
	Target S
	Style  string
}

// View, Edit and Delete are the target-less actions shared by every family.
func View[S ~string]() Spec[S] { return Spec[S]{Kind: KindView, Label: "View", Style: "btn-view"} }

func Edit[S ~string]() Spec[S] { return Spec[S]{Kind: KindEdit, Label: "Edit", Style: "btn-edit"} }

func Delete[S ~string]() Spec[S] {
	return Spec[S]{Kind: KindDelete, Label: "Delete", Style: "btn-delete"}
}

// Transition moves the entity to target after confirmation.
func Transition[S ~string](label string, target S, style string) Spec[S] {
	return Spec[S]{Kind: KindConfirm, Label: label, Target: target, Style: style}
}

// Badge is the status label shown in a row.
type Badge struct {
	Label string
	Class string
}

// Table holds the status-to-actions rules for one entity family.
type Table[S ~string] struct {
	entity        string
	rules         map[S][]Spec[S]
	fallback      []Spec[S]
	confirms      map[S]string
	deleteConfirm string
	badges        map[S]Badge
}

// Option configures a Table.
type Option[S ~string] func(*Table[S])

// New builds a table for entity. Statuses without a rule fall back to view,
// edit and retract-to-fallbackTarget unless WithFallback overrides it.
func New[S ~string](entity string, fallbackTarget S, opts ...Option[S]) *Table[S] {
	t := &Table[S]{
		entity:   entity,
		rules:    make(map[S][]Spec[S]),
		confirms: make(map[S]string),
		badges:   make(map[S]Badge),
		fallback: []Spec[S]{View[S](), Edit[S](), Transition("Retract", fallbackTarget, "btn-retract")},
	}
	t.deleteConfirm = "Delete this " + entity + "? This cannot be undone."
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithRule sets the ordered actions offered in status.
func WithRule[S ~string](status S, specs ...Spec[S]) Option[S] {
	return func(t *Table[S]) {
		t.rules[status] = specs
	}
}

// WithFallback replaces the actions offered for unknown statuses.
func WithFallback[S ~string](specs ...Spec[S]) Option[S] {
	return func(t *Table[S]) {
		t.fallback = specs
	}
}

// WithConfirm sets the confirmation text for transitions into target.
func WithConfirm[S ~string](target S, message string) Option[S] {
	return func(t *Table[S]) {
		t.confirms[target] = message
	}
}

// WithDeleteConfirm sets the confirmation text for deletes.
func WithDeleteConfirm[S ~string](message string) Option[S] {
	return func(t *Table[S]) {
		t.deleteConfirm = message
	}
}

// WithBadge registers the badge for status.
func WithBadge[S ~string](status S, label, class string) Option[S] {
	return func(t *Table[S]) {
		t.badges[status] = Badge{Label: label, Class: class}
	}
}

// Entity returns the family name, e.g. "session".
func (t *Table[S]) Entity() string {
	return t.entity
}

// ActionsFor returns the actions for an entity in status. Delete is withheld
// whenever sold is positive.
func (t *Table[S]) ActionsFor(status S, sold int) []Action {
	specs, ok := t.rules[status]
	if !ok {
		specs = t.fallback
	}
	out := make([]Action, 0, len(specs))
	for _, spec := range specs {
		if spec.Kind == KindDelete && sold > 0 {
			continue
		}
		out = append(out, t.render(spec))
	}
	return out
}

// Allows reports whether moving from status to target is offered.
func (t *Table[S]) Allows(status S, target S, sold int) bool {
	for _, a := range t.ActionsFor(status, sold) {
		if a.Kind == KindConfirm && a.Target == string(target) {
			return true
		}
	}
	return false
}

// CanDelete reports whether delete is offered for status and sold.
func (t *Table[S]) CanDelete(status S, sold int) bool {
	for _, a := range t.ActionsFor(status, sold) {
		if a.Kind == KindDelete {
			return true
		}
	}
	return false
}

// ConfirmText returns the confirmation message for moving into target.
func (t *Table[S]) ConfirmText(target S) string {
	if msg, ok := t.confirms[target]; ok {
		return msg
	}
	return "Change this " + t.entity + " to " + string(target) + "?"
}

// DeleteText returns the delete confirmation message.
func (t *Table[S]) DeleteText() string {
	return t.deleteConfirm
}

// Badge returns the badge for status; unknown statuses show their raw value.
func (t *Table[S]) Badge(status S) Badge {
	if b, ok := t.badges[status]; ok {
		return b
	}
	return Badge{Label: string(status), Class: "badge-secondary"}
}

func (t *Table[S]) render(spec Spec[S]) Action {
	a := Action{Kind: spec.Kind, Label: spec.Label, Target: string(spec.Target), Style: spec.Style}
	switch spec.Kind {
	case KindConfirm:
		a.Confirm = t.ConfirmText(spec.Target)
	case KindDelete:
		a.Confirm = t.deleteConfirm
	}
	return a
}
