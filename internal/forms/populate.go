package forms

import (
	"net/url"
	"strings"

	"github.com/spf13/cast"
)

// Populate writes an entity's editable fields into form values. Repeatable
// groups become one row per array element.
func (s *Schema) Populate(entity map[string]any) url.Values {
	values := url.Values{}
	for _, f := range s.Fields {
		if f.Transient {
			continue
		}
		if v, ok := getPath(entity, f.Name); ok {
			setControl(values, f.Name, f, v)
		}
	}
	for _, g := range s.Groups {
		raw, _ := getPath(entity, g.Path)
		items, _ := raw.([]any)
		for i, item := range items {
			row, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, f := range g.Fields {
				if v, ok := getPath(row, f.Name); ok {
					setControl(values, g.ControlName(i, f.Name), f, v)
				}
			}
		}
	}
	if s.Split != nil {
		s.Split(entity, values)
	}
	return values
}

// Defaults returns the values of a blank form.
func (s *Schema) Defaults() url.Values {
	values := url.Values{}
	for _, f := range s.Fields {
		if f.Default != nil {
			setControl(values, f.Name, f, f.Default)
		}
	}
	return values
}

// DefaultRow writes the defaults of group into row index of values.
func (s *Schema) DefaultRow(values url.Values, group string, index int) {
	g, ok := s.Group(group)
	if !ok {
		return
	}
	for _, f := range g.Fields {
		if f.Default != nil {
			setControl(values, g.ControlName(index, f.Name), f, f.Default)
		}
	}
}

func setControl(values url.Values, name string, f Field, v any) {
	text := Format(f.Type, v)
	if text == "" {
		return
	}
	values.Set(name, text)
}

// Format renders a JSON value as the string an input of type t expects.
func Format(t Type, v any) string {
	if v == nil {
		return ""
	}
	switch t {
	case Bool:
		if cast.ToBool(v) {
			return "on"
		}
		return ""
	case List:
		items := cast.ToStringSlice(v)
		if len(items) == 0 {
			if text, ok := v.(string); ok {
				return text
			}
		}
		return strings.Join(items, ", ")
	case Date:
		if ts, ok := ParseTime(cast.ToString(v)); ok {
			return ts.Format(dateLayout)
		}
	case DateTime:
		if ts, ok := ParseTime(cast.ToString(v)); ok {
			return ts.Format("2006-01-02T15:04")
		}
	case Time:
		text := cast.ToString(v)
		if ts, ok := ParseTime(text); ok && strings.ContainsAny(text, "T ") {
			return ts.Format(clockLayout)
		}
		if len(text) >= 5 {
			return text[:5]
		}
		return text
	}
	return cast.ToString(v)
}
