package content

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	postAttrSubject  = "SUBJECT"
	postAttrText     = "TEXT"
	postAttrTextType = "TEXTTYPE"
)

// Post text types.
const (
	TextTypePlain  = 1
	TextTypeTagged = 2
)

func init() {
	registerCategory(CategoryPost, &categoryDef{
		name: "post",
		defaults: func(c *Content) {
			c.attrs[postAttrTextType] = strconv.Itoa(TextTypePlain)
		},
		validate: func(c *Content) error {
			if err := c.validateParentCategory(CategoryTopic); err != nil {
				return err
			}
			if c.attrs[postAttrText] == "" {
				return errors.New("post text is required")
			}
			return c.autoNumberName()
		},
		afterInsert: postTouchTopic,
	})
}

// Post is one forum message. Like topics, posts are numbered in creation
// order.
type Post struct {
	*Content
}

func NewPost(m *Manager, parent *Topic) (*Post, error) {
	c, err := newChildContent(m, parent.Content, CategoryPost)
	if err != nil {
		return nil, err
	}
	return &Post{c}, nil
}

func (c *Content) AsPost() *Post {
	if c == nil || c.category != CategoryPost {
		return nil
	}
	return &Post{c}
}

func (p *Post) Subject() string {
	return p.Attribute(postAttrSubject)
}

func (p *Post) SetSubject(subject string) {
	p.SetAttribute(postAttrSubject, subject)
}

func (p *Post) Text() string {
	return p.Attribute(postAttrText)
}

func (p *Post) SetText(text string) {
	p.SetAttribute(postAttrText, text)
}

func (p *Post) TextType() int {
	typ, err := strconv.Atoi(p.Attribute(postAttrTextType))
	if err != nil || typ == 0 {
		return TextTypePlain
	}
	return typ
}

func (p *Post) SetTextType(typ int) {
	p.SetAttribute(postAttrTextType, strconv.Itoa(typ))
}

// postTouchTopic bumps the parent topic's modified date so topic listings
// sorted by activity stay correct.
func postTouchTopic(c *Content, user *User) error {
	row, err := c.m.store.Content.Get(c.parent, true)
	if err != nil {
		return errors.Wrap(err, "loading topic")
	}
	if row == nil {
		return nil
	}
	row.Modified = time.Now().Unix()
	if err := c.m.store.Content.Update(row); err != nil {
		return errors.Wrap(err, "touching topic")
	}
	c.m.cache.evict(&Content{id: row.ID, domain: row.Domain, category: Category(row.Category)})
	return nil
}
