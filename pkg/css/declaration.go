package css

import (
	"strconv"
	"strings"
)

// Origin is the cascade origin of a declaration.
type Origin int

const (
	UserAgent Origin = iota
	User
	Author
)

func (o Origin) String() string {
	switch o {
	case UserAgent:
		return "user-agent"
	case User:
		return "user"
	case Author:
		return "author"
	}
	return "origin(" + strconv.Itoa(int(o)) + ")"
}

// importanceAndOriginCount is the number of cascade buckets. Buckets run
// from normal user-agent (0) to important author (5).
const importanceAndOriginCount = 6

// PropertyDeclaration is a single property: value pair with its origin
// and importance.
type PropertyDeclaration struct {
	Name      string
	Value     string
	Important bool
	Origin    Origin

	fingerprint string
}

func NewPropertyDeclaration(name, value string, important bool, origin Origin) *PropertyDeclaration {
	name = strings.ToLower(strings.TrimSpace(name))
	value = strings.TrimSpace(value)
	d := &PropertyDeclaration{
		Name:      name,
		Value:     value,
		Important: important,
		Origin:    origin,
	}
	imp := "N"
	if important {
		imp = "I"
	}
	d.fingerprint = "P" + name + "V" + value + imp + strconv.Itoa(int(origin)) + ";"
	return d
}

// Fingerprint identifies the declaration's name, value, importance and
// origin. Equal fingerprints mean interchangeable declarations.
func (d *PropertyDeclaration) Fingerprint() string {
	return d.fingerprint
}

// Ident returns the lowercased value when it is a single identifier, and
// the empty string otherwise.
func (d *PropertyDeclaration) Ident() string {
	v := d.Value
	if v == "" || strings.ContainsAny(v, " \t\n,/()\"'") {
		return ""
	}
	c := v[0]
	if c >= '0' && c <= '9' || c == '.' || c == '#' || c == '+' {
		return ""
	}
	if c == '-' && len(v) > 1 && (v[1] >= '0' && v[1] <= '9' || v[1] == '.') {
		return ""
	}
	return strings.ToLower(v)
}

func (d *PropertyDeclaration) importanceAndOrigin() int {
	bucket := int(d.Origin)
	if d.Important {
		bucket += 3
	}
	return bucket
}

func (d *PropertyDeclaration) String() string {
	if d.Important {
		return d.Name + ": " + d.Value + " !important"
	}
	return d.Name + ": " + d.Value
}
