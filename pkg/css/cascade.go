package css

import (
	"sort"
	"strings"
	"sync"
)

// CascadedStyle holds the winning declaration for every property that was
// assigned a value, ordered by property name. It is immutable.
type CascadedStyle struct {
	byName map[string]*PropertyDeclaration
	names  []string

	fingerprintOnce sync.Once
	fingerprint     string
}

var emptyCascadedStyle = &CascadedStyle{byName: map[string]*PropertyDeclaration{}}

// EmptyCascadedStyle is the shared style with no declarations.
func EmptyCascadedStyle() *CascadedStyle {
	return emptyCascadedStyle
}

// NewCascadedStyle resolves decls, which must be in ascending specificity
// order. Declarations are bucketed by importance and origin, keeping their
// relative order, and the buckets are applied from normal user-agent up to
// important author, so a later declaration replaces an earlier one.
func NewCascadedStyle(decls []*PropertyDeclaration) *CascadedStyle {
	return layer(nil, decls)
}

// Layer returns a new style that starts from c and applies decls on top.
func (c *CascadedStyle) Layer(decls []*PropertyDeclaration) *CascadedStyle {
	return layer(c, decls)
}

func layer(base *CascadedStyle, decls []*PropertyDeclaration) *CascadedStyle {
	var buckets [importanceAndOriginCount][]*PropertyDeclaration
	for _, d := range decls {
		i := d.importanceAndOrigin()
		buckets[i] = append(buckets[i], d)
	}

	byName := make(map[string]*PropertyDeclaration, len(decls))
	if base != nil {
		for k, v := range base.byName {
			byName[k] = v
		}
	}
	for _, bucket := range buckets {
		for _, d := range bucket {
			byName[d.Name] = d
		}
	}

	names := make([]string, 0, len(byName))
	for k := range byName {
		names = append(names, k)
	}
	sort.Strings(names)
	return &CascadedStyle{byName: byName, names: names}
}

// AnonymousStyle is the style of a generated box with the given display.
func AnonymousStyle(display string) *CascadedStyle {
	return NewCascadedStyle([]*PropertyDeclaration{LayoutDeclaration("display", display)})
}

// LayoutStyle builds a style from declarations made by layout code, for
// example for anonymous table parts.
func LayoutStyle(decls ...*PropertyDeclaration) *CascadedStyle {
	return NewCascadedStyle(decls)
}

// LayoutStyle layers layout declarations over an existing style.
func (c *CascadedStyle) LayoutStyle(decls ...*PropertyDeclaration) *CascadedStyle {
	return c.Layer(decls)
}

// LayoutDeclaration is an important user declaration that layout code uses
// to force a property on a generated box.
func LayoutDeclaration(name, ident string) *PropertyDeclaration {
	return NewPropertyDeclaration(name, ident, true, User)
}

func (c *CascadedStyle) HasProperty(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// PropertyByName returns the winning declaration, or nil.
func (c *CascadedStyle) PropertyByName(name string) *PropertyDeclaration {
	return c.byName[name]
}

// Ident returns the identifier value of a property, or "" when the property
// is unset or not an identifier.
func (c *CascadedStyle) Ident(name string) string {
	d := c.byName[name]
	if d == nil {
		return ""
	}
	return d.Ident()
}

// Declarations returns the winning declarations ordered by property name.
func (c *CascadedStyle) Declarations() []*PropertyDeclaration {
	out := make([]*PropertyDeclaration, len(c.names))
	for i, n := range c.names {
		out[i] = c.byName[n]
	}
	return out
}

// Count is the number of properties with a value.
func (c *CascadedStyle) Count() int {
	return len(c.names)
}

// Fingerprint concatenates the fingerprints of every winning declaration.
// Styles with equal fingerprints are interchangeable.
func (c *CascadedStyle) Fingerprint() string {
	c.fingerprintOnce.Do(func() {
		var sb strings.Builder
		for _, n := range c.names {
			sb.WriteString(c.byName[n].Fingerprint())
		}
		c.fingerprint = sb.String()
	})
	return c.fingerprint
}
