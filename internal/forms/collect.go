package forms

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
	clockLayout    = "15:04"
)

var validate = validator.New()

// Collect walks the schema, coerces every submitted value and returns the
// request payload. Problems are reported as a *ValidationError.
func (s *Schema) Collect(values url.Values) (map[string]any, error) {
	payload := make(map[string]any)
	errs := &ValidationError{}

	for _, f := range s.Fields {
		v, ok := coerceField(f, values[f.Name], f.Name, errs)
		if ok && !f.Transient {
			setPath(payload, f.Name, v)
		}
	}

	for _, g := range s.Groups {
		rows := make([]map[string]any, 0)
		for _, index := range RowIndexes(values, g.Name) {
			row := make(map[string]any, len(g.Fields))
			for _, f := range g.Fields {
				control := g.ControlName(index, f.Name)
				if v, ok := coerceField(f, values[control], control, errs); ok && !f.Transient {
					setPath(row, f.Name, v)
				}
			}
			if g.Keep != nil && !g.Keep(row) {
				continue
			}
			rows = append(rows, row)
		}
		setPath(payload, g.Path, rows)
	}

	if s.Compose != nil {
		s.Compose(values, payload, errs)
	}
	if !errs.Empty() {
		return nil, errs
	}
	return payload, nil
}

// RowIndexes returns the sorted row indexes present for group in values.
func RowIndexes(values url.Values, group string) []int {
	seen := make(map[int]bool)
	for key := range values {
		if i, ok := rowIndex(key, group); ok {
			seen[i] = true
		}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// coerceField returns the typed value and whether the key belongs in the payload.
func coerceField(f Field, raw []string, control string, errs *ValidationError) (any, bool) {
	if f.Type == Bool {
		return parseBool(first(raw)), true
	}
	if f.Type == List {
		items := splitList(raw)
		if len(items) == 0 {
			if f.Required {
				errs.Add(control, f.label()+" is required")
				return nil, false
			}
			return emptyValue(f)
		}
		return items, true
	}

	text := strings.TrimSpace(first(raw))
	if text == "" {
		if f.Required {
			errs.Add(control, f.label()+" is required")
			return nil, false
		}
		return emptyValue(f)
	}

	v, err := parseScalar(f.Type, text)
	if err != nil {
		errs.Add(control, fmt.Sprintf("%s %s", f.label(), err.Error()))
		return nil, false
	}
	if f.Rules != "" {
		if err := validate.Var(v, f.Rules); err != nil {
			errs.Add(control, ruleMessage(f.label(), err))
			return nil, false
		}
	}
	return v, true
}

func emptyValue(f Field) (any, bool) {
	switch f.Empty {
	case EmptyOmit:
		return nil, false
	case EmptyNull:
		return nil, true
	case EmptyDefault:
		return f.Default, true
	}
	switch f.Type {
	case String:
		return "", true
	case List:
		return []string{}, true
	default:
		return nil, true
	}
}

func parseScalar(t Type, text string) (any, error) {
	switch t {
	case Int:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("must be a whole number")
		}
		return n, nil
	case Float:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return n, nil
	case Date:
		d, err := time.Parse(dateLayout, text)
		if err != nil {
			return nil, fmt.Errorf("must be a date (YYYY-MM-DD)")
		}
		return d.Format(dateLayout), nil
	case DateTime:
		ts, ok := ParseTime(text)
		if !ok {
			return nil, fmt.Errorf("must be a date and time")
		}
		return ts.Format(dateTimeLayout), nil
	case Time:
		c, err := time.Parse(clockLayout, text)
		if err != nil {
			return nil, fmt.Errorf("must be a time (HH:mm)")
		}
		return c.Format(clockLayout), nil
	default:
		return text, nil
	}
}

var timeLayouts = []string{
	time.RFC3339,
	dateTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// ParseTime accepts the date-time shapes the API and browsers produce.
func ParseTime(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBool(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func splitList(raw []string) []string {
	out := make([]string, 0)
	for _, item := range raw {
		for _, part := range strings.FieldsFunc(item, func(r rune) bool {
			return r == ',' || r == '\n' || r == '，'
		}) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func first(raw []string) string {
	if len(raw) == 0 {
		return ""
	}
	return raw[0]
}

func ruleMessage(label string, err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return label + " is invalid"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "url":
		return label + " must be a valid URL"
	case "hexcolor":
		return label + " must be a hex color such as #FF5722"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// rowIndex parses the n of a "group[n].field" key.
func rowIndex(key, group string) (int, bool) {
	rest, ok := strings.CutPrefix(key, group+"[")
	if !ok {
		return 0, false
	}
	digits, _, ok := strings.Cut(rest, "].")
	if !ok || digits == "" {
		return 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(digits)
	return i, err == nil
}
