package content

import (
	"github.com/pkg/errors"
)

const (
	forumAttrRealName    = "REALNAME"
	forumAttrDescription = "DESCRIPTION"
)

func init() {
	registerCategory(CategoryForum, &categoryDef{
		name: "forum",
		validate: func(c *Content) error {
			if err := c.validateParentCategory(CategorySection); err != nil {
				return err
			}
			if c.attrs[forumAttrRealName] == "" {
				return errors.New("forum real name is required")
			}
			return c.validateSiblingName(CategoryAny)
		},
	})
}

// Forum is a discussion board below a section.
type Forum struct {
	*Content
}

func NewForum(m *Manager, parent *Section) (*Forum, error) {
	c, err := newChildContent(m, parent.Content, CategoryForum)
	if err != nil {
		return nil, err
	}
	return &Forum{c}, nil
}

func (c *Content) AsForum() *Forum {
	if c == nil || c.category != CategoryForum {
		return nil
	}
	return &Forum{c}
}

// RealName is the display name; the node name stays machine-friendly.
func (f *Forum) RealName() string {
	return f.Attribute(forumAttrRealName)
}

func (f *Forum) SetRealName(name string) {
	f.SetAttribute(forumAttrRealName, name)
}

func (f *Forum) Description() string {
	return f.Attribute(forumAttrDescription)
}

func (f *Forum) SetDescription(description string) {
	f.SetAttribute(forumAttrDescription, description)
}
