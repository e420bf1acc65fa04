package content

import (
	"strconv"

	"github.com/pkg/errors"
)

const (
	translatorAttrType = "TYPE"
	translatorAttrLink = "LINK"
)

// Translator types.
const (
	TranslatorTypeError    = 1
	TranslatorTypeAlias    = 2
	TranslatorTypeRedirect = 3
	TranslatorTypeSection  = 4
)

func init() {
	registerCategory(CategoryTranslator, &categoryDef{
		name: "translator",
		defaults: func(c *Content) {
			c.attrs[translatorAttrType] = strconv.Itoa(TranslatorTypeError)
		},
		validate: func(c *Content) error {
			if c.parent <= 0 {
				return errors.New("translator requires a parent")
			}
			t := &Translator{c}
			switch t.Type() {
			case TranslatorTypeError:
			case TranslatorTypeAlias, TranslatorTypeRedirect, TranslatorTypeSection:
				if t.Link() == "" {
					return errors.New("translator link is required")
				}
			default:
				return errors.Errorf("invalid translator type %d", t.Type())
			}
			return c.validateSiblingName(CategoryAny)
		},
	})
}

// Translator rewrites a path segment: it can alias a sibling, redirect, map
// a section into the site tree or produce an error page.
type Translator struct {
	*Content
}

func NewTranslator(m *Manager, parent *Content) (*Translator, error) {
	c, err := newChildContent(m, parent, CategoryTranslator)
	if err != nil {
		return nil, err
	}
	return &Translator{c}, nil
}

func (c *Content) AsTranslator() *Translator {
	if c == nil || c.category != CategoryTranslator {
		return nil
	}
	return &Translator{c}
}

func (t *Translator) Type() int {
	typ, _ := strconv.Atoi(t.Attribute(translatorAttrType))
	return typ
}

func (t *Translator) SetType(typ int) {
	t.SetAttribute(translatorAttrType, strconv.Itoa(typ))
}

// Link is the target: a sibling name for aliases, a URL for redirects, a
// section id for section translators.
func (t *Translator) Link() string {
	return t.Attribute(translatorAttrLink)
}

func (t *Translator) SetLink(link string) {
	t.SetAttribute(translatorAttrLink, link)
}
