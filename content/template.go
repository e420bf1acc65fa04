package content

import (
	"sort"
	"strings"
)

func init() {
	registerCategory(CategoryTemplate, &categoryDef{
		name: "template",
		validate: func(c *Content) error {
			if err := validateElementNames(c); err != nil {
				return err
			}
			return c.validateSiblingName(CategoryAny)
		},
	})
}

// Template holds page elements under ELEMENT.<name> keys. A template below
// another template inherits its parent's elements. Root templates sit at
// the domain root next to the sites.
type Template struct {
	*Content
}

// NewTemplate creates a fresh root-level template.
func NewTemplate(m *Manager, domain *Domain) (*Template, error) {
	c, err := NewContent(m, domain, CategoryTemplate)
	if err != nil {
		return nil, err
	}
	return &Template{c}, nil
}

// NewChildTemplate creates a fresh template below a parent template.
func NewChildTemplate(m *Manager, parent *Template) (*Template, error) {
	c, err := newChildContent(m, parent.Content, CategoryTemplate)
	if err != nil {
		return nil, err
	}
	return &Template{c}, nil
}

func (c *Content) AsTemplate() *Template {
	if c == nil || c.category != CategoryTemplate {
		return nil
	}
	return &Template{c}
}

func (t *Template) SetElement(name, value string) {
	name = strings.ToLower(name)
	if value == "" {
		t.RemoveAttribute(elementPrefix + name)
	} else {
		t.SetAttribute(elementPrefix+name, value)
	}
}

// Element returns an element value, falling back to the parent template
// chain. Lookups give up after maxTreeDepth steps so a parent cycle
// introduced by raw data cannot hang a request.
func (t *Template) Element(name string) (string, error) {
	name = strings.ToLower(name)
	var current = t
	for depth := 0; depth < maxTreeDepth; depth++ {
		if value, ok := current.attrs[elementPrefix+name]; ok {
			return value, nil
		}
		parent, err := current.parentTemplate()
		if err != nil || parent == nil {
			return "", err
		}
		current = parent
	}
	return "", nil
}

// ElementNames returns the union of this template's and its ancestors'
// element names, sorted.
func (t *Template) ElementNames() ([]string, error) {
	var seen = map[string]bool{}
	var current = t
	for depth := 0; depth < maxTreeDepth; depth++ {
		for key := range current.attrs {
			if strings.HasPrefix(key, elementPrefix) {
				seen[strings.TrimPrefix(key, elementPrefix)] = true
			}
		}
		parent, err := current.parentTemplate()
		if err != nil {
			return nil, err
		}
		if parent == nil {
			break
		}
		current = parent
	}
	var names = make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (t *Template) parentTemplate() (*Template, error) {
	if t.parent <= 0 {
		return nil, nil
	}
	row, err := t.m.store.Content.Get(t.parent, t.m.admin)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	c, err := contentFromRow(t.m, row)
	if err != nil {
		return nil, err
	}
	return c.AsTemplate(), nil
}
