package content

import (
	"strconv"
	"strings"
)

const (
	docAttrProperty     = "PROPERTY."
	docAttrPropertyType = "PROPERTYTYPE."
)

func init() {
	registerCategory(CategoryDocument, &categoryDef{
		name: "document",
		validate: func(c *Content) error {
			if err := c.validateParentCategory(CategorySection); err != nil {
				return err
			}
			for key := range c.attrs {
				var id string
				switch {
				case strings.HasPrefix(key, docAttrPropertyType):
					id = strings.TrimPrefix(key, docAttrPropertyType)
				case strings.HasPrefix(key, docAttrProperty):
					id = strings.TrimPrefix(key, docAttrProperty)
				default:
					continue
				}
				if err := validateChars("property identifier", id, elementChars); err != nil {
					return err
				}
			}
			return c.validateSiblingName(CategoryAny)
		},
	})
}

// Document is a structured text node below a section. Its property values
// follow the section's property definitions.
type Document struct {
	*Content
}

func NewDocument(m *Manager, parent *Section) (*Document, error) {
	c, err := newChildContent(m, parent.Content, CategoryDocument)
	if err != nil {
		return nil, err
	}
	return &Document{c}, nil
}

func (c *Content) AsDocument() *Document {
	if c == nil || c.category != CategoryDocument {
		return nil
	}
	return &Document{c}
}

// Property returns the value of one document property, empty if unset.
func (d *Document) Property(id string) string {
	return d.Attribute(docAttrProperty + id)
}

func (d *Document) SetProperty(id, value string) {
	if value == "" {
		d.RemoveAttribute(docAttrProperty + id)
		d.RemoveAttribute(docAttrPropertyType + id)
	} else {
		d.SetAttribute(docAttrProperty+id, value)
	}
}

// PropertyType returns the type of one property value, defaulting to
// PropertyTypeString.
func (d *Document) PropertyType(id string) int {
	typ, err := strconv.Atoi(d.Attribute(docAttrPropertyType + id))
	if err != nil || typ == 0 {
		return PropertyTypeString
	}
	return typ
}

func (d *Document) SetPropertyType(id string, typ int) {
	d.SetAttribute(docAttrPropertyType+id, strconv.Itoa(typ))
}
