// Package forms binds entity JSON to HTML form values and back using an
// explicit per-field schema.
package forms

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Type is the coercion applied to a submitted value.
type Type int

const (
	String Type = iota
	Int
	Float
	Bool
	Date
	DateTime
	Time
	List
)

// EmptyPolicy decides what a blank optional field contributes to the payload.
type EmptyPolicy int

const (
	// EmptyAuto sends "" for strings, [] for lists and null otherwise.
	EmptyAuto EmptyPolicy = iota
	// EmptyOmit leaves the key out.
	EmptyOmit
	// EmptyNull sends null.
	EmptyNull
	// EmptyDefault sends Field.Default.
	EmptyDefault
)

// Field declares one form control. Name is both the control name and the
// dotted payload path, e.g. "metadata.tips".
type Field struct {
	Name      string
	Label     string
	Type      Type
	Required  bool
	Empty     EmptyPolicy
	Default   any
	Rules     string
	Transient bool
}

func (f Field) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// Group declares a repeatable block of fields. Controls are named
// Name[index].field and the payload key Path receives one object per row.
type Group struct {
	Name   string
	Path   string
	Fields []Field
	Keep   func(row map[string]any) bool
}

// ControlName returns the control name of field in row index.
func (g Group) ControlName(index int, field string) string {
	return fmt.Sprintf("%s[%d].%s", g.Name, index, field)
}

// Schema describes an entity form.
type Schema struct {
	Fields []Field
	Groups []Group
	// Compose derives payload values from several controls and performs
	// cross-field checks. Problems are added to errs.
	Compose func(values url.Values, payload map[string]any, errs *ValidationError)
	// Split is the inverse of Compose, run when an entity is loaded.
	Split func(entity map[string]any, values url.Values)
}

// Group looks up a group by control name.
func (s *Schema) Group(name string) (Group, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// ValidationError maps control names to messages.
type ValidationError struct {
	Fields map[string]string
}

// Add records a message for field, keeping the first one.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Empty reports whether no problem was recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// setPath writes value at a dotted path, creating nested objects.
func setPath(payload map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := payload
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// getPath reads a dotted path from a decoded JSON object.
func getPath(entity map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = entity
	for _, part := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			obj, ok = decodeObject(cur)
			if !ok {
				return nil, false
			}
		}
		cur, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// decodeObject accepts objects stored as JSON text, as some records keep
// metadata that way.
func decodeObject(v any) (map[string]any, bool) {
	text, ok := v.(string)
	if !ok || !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil, false
	}
	return obj, true
}
