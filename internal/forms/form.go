package forms

import (
	"net/http"
	"net/url"
	"strings"
)

// Form is the view-model of an entity form.
type Form struct {
	ID       string
	ReadOnly bool
	Values   url.Values
	Errors   map[string]string
	Error    string
	Entity   map[string]any
	schema   *Schema
}

// IsNew reports whether submitting creates an entity.
func (f *Form) IsNew() bool {
	return f.ID == ""
}

// Method is the HTTP method used against the API on submit.
func (f *Form) Method() string {
	if f.IsNew() {
		return http.MethodPost
	}
	return http.MethodPut
}

// Value returns the current value of a control.
func (f *Form) Value(name string) string {
	return f.Values.Get(name)
}

// Checked reports whether a checkbox control is on.
func (f *Form) Checked(name string) bool {
	return parseBool(f.Values.Get(name))
}

// Selected reports whether option value is the current value of name.
func (f *Form) Selected(name, value string) bool {
	return f.Values.Get(name) == value
}

// FieldError returns the validation message for a control.
func (f *Form) FieldError(name string) string {
	return f.Errors[name]
}

// Set overrides a control value.
func (f *Form) Set(name, value string) {
	if f.Values == nil {
		f.Values = url.Values{}
	}
	f.Values.Set(name, value)
}

// Row is one instance of a repeatable group.
type Row struct {
	group  Group
	Index  int
	values url.Values
}

// Name returns the control name of field in this row.
func (r Row) Name(field string) string {
	return r.group.ControlName(r.Index, field)
}

// Value returns the value of field in this row.
func (r Row) Value(field string) string {
	return r.values.Get(r.Name(field))
}

// Checked reports whether a checkbox in this row is on.
func (r Row) Checked(field string) bool {
	return parseBool(r.Value(field))
}

// Rows returns the rows of group in index order.
func (f *Form) Rows(group string) []Row {
	if f.schema == nil {
		return nil
	}
	g, ok := f.schema.Group(group)
	if !ok {
		return nil
	}
	indexes := RowIndexes(f.Values, group)
	rows := make([]Row, 0, len(indexes))
	for _, i := range indexes {
		rows = append(rows, Row{group: g, Index: i, values: f.Values})
	}
	return rows
}

// NextIndex returns an unused row index for group.
func (f *Form) NextIndex(group string) int {
	indexes := RowIndexes(f.Values, group)
	if len(indexes) == 0 {
		return 0
	}
	return indexes[len(indexes)-1] + 1
}

// SetRow writes a field value into row index of group.
func (f *Form) SetRow(group string, index int, field, value string) {
	if g, ok := f.schema.Group(group); ok {
		f.Set(g.ControlName(index, field), value)
	}
}

// ClearGroup removes every row of group.
func (f *Form) ClearGroup(group string) {
	for _, i := range RowIndexes(f.Values, group) {
		f.RemoveRow(group, i)
	}
}

// RemoveRow drops the controls of row index. Remaining rows keep their
// indexes.
func (f *Form) RemoveRow(group string, index int) {
	prefix := group + "[" + itoa(index) + "]."
	for key := range f.Values {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			delete(f.Values, key)
		}
	}
}

// Includes reports whether value is one of the items of a list control.
func (f *Form) Includes(name, value string) bool {
	for _, item := range splitList(f.Values[name]) {
		if item == value {
			return true
		}
	}
	return false
}
