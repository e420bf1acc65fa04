package content

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	pageAttrTemplate = "TEMPLATE"
	elementPrefix    = "ELEMENT."
)

func init() {
	registerCategory(CategoryPage, &categoryDef{
		name: "page",
		validate: func(c *Content) error {
			if c.parent <= 0 {
				return errors.New("page requires a parent")
			}
			if err := validateElementNames(c); err != nil {
				return err
			}
			return c.validateSiblingName(CategoryAny)
		},
	})
}

// Page is a renderable node. Its elements are stored in the attribute bag
// under ELEMENT.<name> keys; unset elements fall back to the linked
// template chain.
type Page struct {
	*Content
}

func NewPage(m *Manager, parent *Content) (*Page, error) {
	c, err := newChildContent(m, parent, CategoryPage)
	if err != nil {
		return nil, err
	}
	return &Page{c}, nil
}

func (c *Content) AsPage() *Page {
	if c == nil || c.category != CategoryPage {
		return nil
	}
	return &Page{c}
}

// TemplateID returns the linked template id, zero for none.
func (p *Page) TemplateID() int {
	id, _ := strconv.Atoi(p.Attribute(pageAttrTemplate))
	return id
}

func (p *Page) SetTemplateID(id int) {
	if id == 0 {
		p.RemoveAttribute(pageAttrTemplate)
	} else {
		p.SetAttribute(pageAttrTemplate, strconv.Itoa(id))
	}
}

// SetElement sets a local element. An empty value removes the local
// override so the template value shows through again.
func (p *Page) SetElement(name, value string) {
	name = strings.ToLower(name)
	if value == "" {
		p.RemoveAttribute(elementPrefix + name)
	} else {
		p.SetAttribute(elementPrefix+name, value)
	}
}

// Element returns an element value, first from the page itself, then from
// the template chain. The empty string means the element is unset
// everywhere.
func (p *Page) Element(name string) (string, error) {
	name = strings.ToLower(name)
	if value, ok := p.attrs[elementPrefix+name]; ok {
		return value, nil
	}
	tpl, err := p.template()
	if err != nil || tpl == nil {
		return "", err
	}
	return tpl.Element(name)
}

// ElementNames returns the union of local and inherited element names,
// sorted.
func (p *Page) ElementNames() ([]string, error) {
	var seen = map[string]bool{}
	for key := range p.attrs {
		if strings.HasPrefix(key, elementPrefix) {
			seen[strings.TrimPrefix(key, elementPrefix)] = true
		}
	}
	tpl, err := p.template()
	if err != nil {
		return nil, err
	}
	if tpl != nil {
		inherited, err := tpl.ElementNames()
		if err != nil {
			return nil, err
		}
		for _, name := range inherited {
			seen[name] = true
		}
	}
	var names = make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (p *Page) template() (*Template, error) {
	id := p.TemplateID()
	if id == 0 {
		return nil, nil
	}
	row, err := p.m.store.Content.Get(id, p.m.admin)
	if err != nil {
		return nil, errors.Wrap(err, "loading template")
	}
	if row == nil {
		return nil, nil
	}
	c, err := contentFromRow(p.m, row)
	if err != nil {
		return nil, err
	}
	return c.AsTemplate(), nil
}

func validateElementNames(c *Content) error {
	for key := range c.attrs {
		if !strings.HasPrefix(key, elementPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, elementPrefix)
		if err := validateSize("element name", name, 1, 100); err != nil {
			return err
		}
		if err := validateChars("element name", name, elementChars); err != nil {
			return err
		}
	}
	return nil
}
