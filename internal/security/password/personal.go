package password

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field names a piece of personal information.
type Field string

const (
	FieldName      Field = "name"
	FieldNickname  Field = "nickname"
	FieldBirthDate Field = "birthDate"
	FieldPetName   Field = "petName"
)

// KnownFields is the declared field set, in check order.
var KnownFields = []Field{FieldName, FieldNickname, FieldBirthDate, FieldPetName}

// Humanize turns a camelCase key into lowercase words: "birthDate" -> "birth date".
func (f Field) Humanize() string {
	var b strings.Builder
	for _, r := range string(f) {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return cases.Lower(language.Und).String(b.String())
}

type profileEntry struct {
	field Field
	value string
}

// Profile is an immutable set of personal details. Blank values are never stored.
// Known fields come first in declared order, other fields follow sorted by name.
type Profile struct {
	entries []profileEntry
}

// NewProfile builds a Profile, trimming values and dropping blanks.
func NewProfile(values map[Field]string) Profile {
	known := make(map[Field]bool, len(KnownFields))
	var p Profile
	for _, f := range KnownFields {
		known[f] = true
		p.add(f, values[f])
	}
	extra := make([]Field, 0, len(values))
	for f := range values {
		if !known[f] {
			extra = append(extra, f)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, f := range extra {
		p.add(f, values[f])
	}
	return p
}

// ProfileFromAny builds a Profile from loosely typed input such as decoded JSON.
// Scalars are formatted as strings; nil, objects and arrays are skipped.
func ProfileFromAny(raw map[string]any) Profile {
	values := make(map[Field]string, len(raw))
	for k, v := range raw {
		if s, ok := coerce(v); ok {
			values[Field(k)] = s
		}
	}
	return NewProfile(values)
}

func coerce(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool, int, int32, int64, uint, uint32, uint64, float32, float64:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}

func (p *Profile) add(f Field, v string) {
	if strings.TrimSpace(string(f)) == "" {
		return
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	p.entries = append(p.entries, profileEntry{field: f, value: v})
}

// Get returns the stored value for f.
func (p Profile) Get(f Field) (string, bool) {
	for _, e := range p.entries {
		if e.field == f {
			return e.value, true
		}
	}
	return "", false
}

func (p Profile) Len() int { return len(p.entries) }

func (p Profile) IsEmpty() bool { return len(p.entries) == 0 }

// Map returns a copy of the profile as plain key/value pairs.
func (p Profile) Map() map[string]string {
	out := make(map[string]string, len(p.entries))
	for _, e := range p.entries {
		out[string(e.field)] = e.value
	}
	return out
}

func (p Profile) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

func (p *Profile) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*p = ProfileFromAny(raw)
	return nil
}

// MatchPersonalInfo lists every way pwd leaks the profile.
//
// A field whose value appears whole yields one warning. Values longer than three
// characters are also scanned with a 3-character window, and every window found in
// the password yields its own warning, repeats included. The repeats are what
// scale the penalty with how much of the profile leaks.
func MatchPersonalInfo(pwd string, p Profile) []string {
	var warnings []string
	lower := strings.ToLower(pwd)
	for _, e := range p.entries {
		label := e.field.Humanize()
		value := []rune(strings.ToLower(e.value))

		if strings.Contains(lower, string(value)) {
			warnings = append(warnings, fmt.Sprintf("Contains personal information: %s '%s'", label, e.value))
		}
		if len(value) > 3 {
			for i := 0; i+3 <= len(value); i++ {
				part := string(value[i : i+3])
				if strings.Contains(lower, part) {
					warnings = append(warnings, fmt.Sprintf("Contains part of personal information: %s '%s'", label, part))
				}
			}
		}
	}
	return warnings
}
