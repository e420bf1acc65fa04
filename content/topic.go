package content

import (
	"github.com/pkg/errors"
)

const (
	topicAttrSubject = "SUBJECT"
	topicAttrLocked  = "LOCKED"
)

func init() {
	registerCategory(CategoryTopic, &categoryDef{
		name: "topic",
		validate: func(c *Content) error {
			if err := c.validateParentCategory(CategoryForum); err != nil {
				return err
			}
			if c.attrs[topicAttrSubject] == "" {
				return errors.New("topic subject is required")
			}
			return c.autoNumberName()
		},
	})
}

// Topic is a discussion thread. Topics are numbered, not named: each new
// topic gets the next integer after the newest sibling.
type Topic struct {
	*Content
}

func NewTopic(m *Manager, parent *Forum) (*Topic, error) {
	c, err := newChildContent(m, parent.Content, CategoryTopic)
	if err != nil {
		return nil, err
	}
	return &Topic{c}, nil
}

func (c *Content) AsTopic() *Topic {
	if c == nil || c.category != CategoryTopic {
		return nil
	}
	return &Topic{c}
}

func (t *Topic) Subject() string {
	return t.Attribute(topicAttrSubject)
}

func (t *Topic) SetSubject(subject string) {
	t.SetAttribute(topicAttrSubject, subject)
}

// IsLocked reports whether new posts are rejected by the forum layer.
func (t *Topic) IsLocked() bool {
	return t.Attribute(topicAttrLocked) == "1"
}

func (t *Topic) SetLocked(locked bool) {
	if locked {
		t.SetAttribute(topicAttrLocked, "1")
	} else {
		t.RemoveAttribute(topicAttrLocked)
	}
}
