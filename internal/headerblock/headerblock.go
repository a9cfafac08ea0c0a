// Package headerblock parses and serializes the raw newline-delimited
// "Name: value" header representation used at the model boundary, keeping
// case-insensitive lookup and multi-value append semantics.
package headerblock

import (
	"strings"
)

type Field struct {
	Name  string
	Value string
}

type List struct {
	fields []Field
}

// Parse splits a raw header block into ordered fields. Lines without a colon
// and blank lines are skipped.
func Parse(raw string) List {
	var list List
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		list.fields = append(list.fields, Field{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return list
}

// FromMap builds a list from name → values pairs, preserving multi-values.
func FromMap(headers map[string][]string) List {
	var list List
	for name, values := range headers {
		for _, value := range values {
			list.Add(name, value)
		}
	}
	return list
}

func (l *List) Len() int {
	return len(l.fields)
}

func (l *List) Fields() []Field {
	return l.fields
}

// Get returns the first value for name, case-insensitively.
func (l *List) Get(name string) (string, bool) {
	for _, f := range l.fields {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for name, in order. Needed for
// Set-Cookie, which must never be folded into one field.
func (l *List) Values(name string) []string {
	var values []string
	for _, f := range l.fields {
		if strings.EqualFold(f.Name, name) {
			values = append(values, f.Value)
		}
	}
	return values
}

func (l *List) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Set replaces every existing field called name with a single value,
// keeping the position of the first occurrence.
func (l *List) Set(name, value string) {
	replaced := false
	out := l.fields[:0]
	for _, f := range l.fields {
		if strings.EqualFold(f.Name, name) {
			if replaced {
				continue
			}
			f = Field{Name: name, Value: value}
			replaced = true
		}
		out = append(out, f)
	}
	l.fields = out
	if !replaced {
		l.fields = append(l.fields, Field{Name: name, Value: value})
	}
}

// Add appends a field without touching existing values.
func (l *List) Add(name, value string) {
	l.fields = append(l.fields, Field{Name: name, Value: value})
}

func (l *List) Delete(name string) {
	out := l.fields[:0]
	for _, f := range l.fields {
		if strings.EqualFold(f.Name, name) {
			continue
		}
		out = append(out, f)
	}
	l.fields = out
}

// ContentType returns the content-type value without parameters.
func (l *List) ContentType() (string, bool) {
	value, ok := l.Get("content-type")
	if !ok {
		return "", false
	}
	if base, _, found := strings.Cut(value, ";"); found {
		return strings.TrimSpace(base), true
	}
	return strings.TrimSpace(value), true
}

func (l *List) Clone() List {
	clone := List{fields: make([]Field, len(l.fields))}
	copy(clone.fields, l.fields)
	return clone
}

// String serializes back to the newline-delimited block form.
func (l *List) String() string {
	var b strings.Builder
	for i, f := range l.fields {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}
