package content

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const documentPropertyPrefix = "DOCUMENT."

// Document property types.
const (
	PropertyTypeString = 1
	PropertyTypeTagged = 2
	PropertyTypeHTML   = 3
)

func init() {
	registerCategory(CategorySection, &categoryDef{
		name: "section",
		validate: func(c *Content) error {
			for key := range c.attrs {
				if !strings.HasPrefix(key, documentPropertyPrefix) {
					continue
				}
				id := strings.TrimPrefix(key, documentPropertyPrefix)
				if err := validateChars("property identifier", id, elementChars); err != nil {
					return err
				}
			}
			// only sections conflict; a page of the same name is fine
			return c.validateSiblingName(CategorySection)
		},
	})
}

// Section groups documents and forums and defines which properties its
// documents carry. Property definitions are stored encoded under
// DOCUMENT.<id> keys.
type Section struct {
	*Content
}

// DocumentProperty describes one input field of the documents in a
// section.
type DocumentProperty struct {
	ID          string
	Name        string
	Position    int
	Type        int
	Description string
}

// NewSection creates a fresh section, at the domain root or below a parent
// section.
func NewSection(m *Manager, domain *Domain, parent *Section) (*Section, error) {
	var c *Content
	var err error
	if parent != nil {
		c, err = newChildContent(m, parent.Content, CategorySection)
	} else {
		c, err = NewContent(m, domain, CategorySection)
	}
	if err != nil {
		return nil, err
	}
	return &Section{c}, nil
}

func (c *Content) AsSection() *Section {
	if c == nil || c.category != CategorySection {
		return nil
	}
	return &Section{c}
}

// Properties returns the property definitions ordered by position, then
// name.
func (s *Section) Properties() []DocumentProperty {
	var props []DocumentProperty
	for key, value := range s.attrs {
		if !strings.HasPrefix(key, documentPropertyPrefix) {
			continue
		}
		m := decodeMap(value)
		position, _ := strconv.Atoi(m["position"])
		typ, _ := strconv.Atoi(m["type"])
		props = append(props, DocumentProperty{
			ID:          strings.TrimPrefix(key, documentPropertyPrefix),
			Name:        m["name"],
			Position:    position,
			Type:        typ,
			Description: m["description"],
		})
	}
	sort.Slice(props, func(i, j int) bool {
		if props[i].Position != props[j].Position {
			return props[i].Position < props[j].Position
		}
		return props[i].Name < props[j].Name
	})
	return props
}

// SetProperty stores or replaces one property definition.
func (s *Section) SetProperty(p DocumentProperty) error {
	if err := validateChars("property identifier", p.ID, elementChars); err != nil {
		return err
	}
	if p.ID == "" {
		return errors.New("property identifier is required")
	}
	s.SetAttribute(documentPropertyPrefix+p.ID, encodeMap(map[string]string{
		"name":        p.Name,
		"position":    strconv.Itoa(p.Position),
		"type":        strconv.Itoa(p.Type),
		"description": p.Description,
	}))
	return nil
}

func (s *Section) RemoveProperty(id string) {
	s.RemoveAttribute(documentPropertyPrefix + id)
}
