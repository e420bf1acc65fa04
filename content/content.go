package content

import (
	"fmt"
	"time"

	"github.com/driftwood-cms/driftwood/data"
	"github.com/pkg/errors"
)

const maxTreeDepth = 64

// Content is one node in the tree. The id is stable across revisions;
// revision zero is the unpublished work copy. Category-specific fields live
// in the attribute bag and are exposed through the typed wrappers.
type Content struct {
	object
	id       int
	domain   string
	category Category
	name     string
	parent   int
	revision int
	online   time.Time
	offline  time.Time
	modified time.Time
	author   string
	comment  string
	status   int

	attrs     map[string]string
	origAttrs map[string]string // as loaded, for the update diff

	// revision at load time; a differing revision on save means promotion
	oldRevision int
}

// NewContent creates a fresh, non-persistent node of the given category at
// the domain root. Use SetParent to place it in the tree.
func NewContent(m *Manager, domain *Domain, category Category) (*Content, error) {
	def, ok := categories[category]
	if !ok {
		return nil, errors.Errorf("unknown content category %d", category)
	}
	var c = &Content{
		domain:   domain.name,
		category: category,
		attrs:    map[string]string{},
	}
	c.object = object{m: m, self: c}
	if def.defaults != nil {
		def.defaults(c)
	}
	return c, nil
}

// newChildContent creates a fresh node below an existing parent.
func newChildContent(m *Manager, parent *Content, category Category) (*Content, error) {
	def, ok := categories[category]
	if !ok {
		return nil, errors.Errorf("unknown content category %d", category)
	}
	var c = &Content{
		domain:   parent.domain,
		category: category,
		parent:   parent.id,
		attrs:    map[string]string{},
	}
	c.object = object{m: m, self: c}
	if def.defaults != nil {
		def.defaults(c)
	}
	return c, nil
}

// contentFromRow builds a persistent node from a stored row, loading its
// attribute bag.
func contentFromRow(m *Manager, row *data.ContentRow) (*Content, error) {
	attrs, err := m.store.Attributes.Get(row.ID, row.Revision)
	if err != nil {
		return nil, errors.Wrap(err, "loading content attributes")
	}
	var orig = make(map[string]string, len(attrs))
	for k, v := range attrs {
		orig[k] = v
	}
	var c = &Content{
		id:          row.ID,
		domain:      row.Domain,
		category:    Category(row.Category),
		name:        row.Name,
		parent:      row.Parent,
		revision:    row.Revision,
		online:      fromUnix(row.Online),
		offline:     fromUnix(row.Offline),
		modified:    fromUnix(row.Modified),
		author:      row.Author,
		comment:     row.Comment,
		status:      row.Status,
		attrs:       attrs,
		origAttrs:   orig,
		oldRevision: row.Revision,
	}
	c.object = object{m: m, self: c, persistent: true}
	return c, nil
}

func (c *Content) ID() int                 { return c.id }
func (c *Content) DomainName() string      { return c.domain }
func (c *Content) Category() Category      { return c.category }
func (c *Content) Name() string            { return c.name }
func (c *Content) ParentID() int           { return c.parent }
func (c *Content) RevisionNumber() int     { return c.revision }
func (c *Content) OnlineDate() time.Time   { return c.online }
func (c *Content) OfflineDate() time.Time  { return c.offline }
func (c *Content) ModifiedDate() time.Time { return c.modified }
func (c *Content) AuthorName() string      { return c.author }
func (c *Content) Comment() string         { return c.comment }

func (c *Content) SetName(name string)        { c.name = name }
func (c *Content) SetComment(comment string)  { c.comment = comment }
func (c *Content) SetOnlineDate(t time.Time)  { c.online = t }
func (c *Content) SetOfflineDate(t time.Time) { c.offline = t }

func (c *Content) SetParent(parent *Content) {
	c.parent = parent.id
}

func (c *Content) SetParentID(id int) {
	c.parent = id
}

// SetRevisionNumber stamps the node and its attribute bag with a new
// revision. Saving afterwards writes the bag under that revision.
func (c *Content) SetRevisionNumber(revision int) {
	c.revision = revision
}

// Attribute returns the value of one bag entry, empty if unset.
func (c *Content) Attribute(name string) string {
	return c.attrs[name]
}

func (c *Content) SetAttribute(name, value string) {
	c.attrs[name] = value
}

func (c *Content) RemoveAttribute(name string) {
	delete(c.attrs, name)
}

// AttributeNames returns the keys of the bag in unspecified order.
func (c *Content) AttributeNames() []string {
	var names = make([]string, 0, len(c.attrs))
	for name := range c.attrs {
		names = append(names, name)
	}
	return names
}

// IsOnline reports whether the node's own publish window covers now.
func (c *Content) IsOnline() bool {
	return c.isOnlineAt(time.Now())
}

func (c *Content) isOnlineAt(t time.Time) bool {
	if c.online.IsZero() || c.online.After(t) {
		return false
	}
	return c.offline.IsZero() || c.offline.After(t)
}

// IsLatestRevision reports whether this is the work revision, or the
// highest one if no work revision exists. Derived from the status bitmask
// the data layer maintains at write time.
func (c *Content) IsLatestRevision() bool {
	return c.status&data.StatusLatest != 0
}

// IsPublishedRevision reports whether this is the highest numbered
// revision.
func (c *Content) IsPublishedRevision() bool {
	return c.status&data.StatusPublished != 0
}

// Revisions returns all revisions of this node, highest first.
func (c *Content) Revisions() ([]*Content, error) {
	rows, err := c.m.store.Content.GetRevisions(c.id)
	if err != nil {
		return nil, c.m.logError(errors.Wrap(err, "loading revisions"))
	}
	var result = make([]*Content, 0, len(rows))
	for _, row := range rows {
		rev, err := contentFromRow(c.m, row)
		if err != nil {
			return nil, c.m.logError(err)
		}
		result = append(result, rev)
	}
	return result, nil
}

// Revision returns one revision of this node, or nil if it does not exist.
func (c *Content) Revision(revision int) (*Content, error) {
	row, err := c.m.store.Content.GetRevision(c.id, revision)
	if err != nil {
		return nil, c.m.logError(errors.Wrap(err, "loading revision"))
	}
	if row == nil {
		return nil, nil
	}
	return contentFromRow(c.m, row)
}

// MaxRevisionNumber returns the highest revision number of this node.
func (c *Content) MaxRevisionNumber() (int, error) {
	rows, err := c.m.store.Content.GetRevisions(c.id)
	if err != nil {
		return 0, c.m.logError(errors.Wrap(err, "loading revisions"))
	}
	var max int
	for _, row := range rows {
		if row.Revision > max {
			max = row.Revision
		}
	}
	return max, nil
}

// DeleteRevision removes just this (id, revision) pair. The status bitmask
// of the remaining revisions is recomputed and the cache entry evicted.
func (c *Content) DeleteRevision(user *User) error {
	defer c.m.cache.evict(c)
	if err := c.m.checkDelete(user, c); err != nil {
		return c.m.logDenied(err)
	}
	if err := c.m.store.DeleteContentRevision(c.id, c.revision); err != nil {
		return c.m.logError(errors.Wrap(err, "deleting revision"))
	}
	if def := c.def(); def != nil && def.afterWrite != nil {
		if err := def.afterWrite(c); err != nil {
			return c.m.logError(err)
		}
	}
	return nil
}

func (c *Content) describe() string {
	return fmt.Sprintf("%s object %d", c.category, c.id)
}

func (c *Content) validate() error {
	if err := validateSize("domain", c.domain, 1, 255); err != nil {
		return err
	}
	if def := c.def(); def != nil && def.validate != nil {
		if err := def.validate(c); err != nil {
			return err
		}
	}
	if err := validateSize("name", c.name, 1, 200); err != nil {
		return err
	}
	return validateChars("name", c.name, nameChars)
}

// validateSiblingName rejects a name already used by another child of the
// same parent. When category is not CategoryAny, only siblings of that
// category conflict.
func (c *Content) validateSiblingName(category Category) error {
	var row *data.ContentRow
	var err error
	if category == CategoryAny {
		row, err = c.m.store.Content.GetByName(c.domain, c.parent, c.name, data.StatusLatest)
	} else {
		row, err = c.m.store.Content.GetByNameCategory(c.domain, c.parent, c.name, int(category), data.StatusLatest)
	}
	if err != nil {
		return errors.Wrap(err, "checking name uniqueness")
	}
	if row == nil || row.ID == c.id {
		return nil
	}
	return errors.Errorf("name %q is already used by another object", c.name)
}

// validateParentCategory requires the parent to exist and be of the given
// category.
func (c *Content) validateParentCategory(category Category) error {
	if c.parent <= 0 {
		return errors.Errorf("%s requires a parent", c.category)
	}
	row, err := c.m.store.Content.Get(c.parent, true)
	if err != nil {
		return errors.Wrap(err, "checking parent")
	}
	if row == nil {
		return errors.Errorf("parent object %d not found", c.parent)
	}
	if Category(row.Category) != category {
		return errors.Errorf("parent of a %s must be a %s", c.category, category)
	}
	return nil
}

// autoNumberName assigns the next integer after the newest same-category
// sibling's name, starting at "1". Used by topics and posts.
func (c *Content) autoNumberName() error {
	if c.name != "" {
		return nil
	}
	newest, err := c.m.store.Content.NewestChildName(c.parent, int(c.category))
	if err != nil {
		return errors.Wrap(err, "numbering object")
	}
	var next = 1
	if newest != "" {
		var n int
		if _, err := fmt.Sscanf(newest, "%d", &n); err == nil {
			next = n + 1
		}
	}
	c.name = fmt.Sprintf("%d", next)
	return nil
}

func (c *Content) row() *data.ContentRow {
	return &data.ContentRow{
		ID:       c.id,
		Revision: c.revision,
		Domain:   c.domain,
		Category: int(c.category),
		Name:     c.name,
		Parent:   c.parent,
		Online:   unix(c.online),
		Offline:  unix(c.offline),
		Modified: unix(c.modified),
		Author:   c.author,
		Comment:  c.comment,
	}
}

func (c *Content) insert(user *User, restore bool) error {

	c.modified = time.Now()
	if user != nil {
		c.author = user.name
	}

	row := c.row()
	if err := c.m.store.Content.Insert(row); err != nil {
		return errors.Wrap(err, "inserting content")
	}
	c.id = row.ID

	for name, value := range c.attrs {
		if err := c.m.store.Attributes.Insert(c.id, c.revision, name, value); err != nil {
			return errors.Wrap(err, "inserting content attribute")
		}
	}

	c.origAttrs = copyAttrs(c.attrs)
	c.oldRevision = c.revision

	if def := c.def(); def != nil && def.afterInsert != nil && !restore {
		if err := def.afterInsert(c, user); err != nil {
			return err
		}
	}
	return nil
}

func (c *Content) update(user *User) error {

	c.modified = time.Now()
	if user != nil {
		c.author = user.name
	}

	if c.revision != c.oldRevision {
		if err := c.promote(); err != nil {
			return err
		}
	} else {
		if err := c.m.store.Content.Update(c.row()); err != nil {
			return errors.Wrap(err, "updating content")
		}
		if err := c.updateAttrs(); err != nil {
			return err
		}
	}

	c.origAttrs = copyAttrs(c.attrs)
	c.oldRevision = c.revision

	if def := c.def(); def != nil && def.afterWrite != nil {
		if err := def.afterWrite(c); err != nil {
			return err
		}
	}
	return nil
}

// promote writes the node under its new revision number. If the old
// revision was the work copy, its rows are removed, turning the draft into
// the numbered revision.
func (c *Content) promote() error {
	if err := c.m.store.Content.Insert(c.row()); err != nil {
		return errors.Wrap(err, "inserting revision")
	}
	for name, value := range c.attrs {
		if err := c.m.store.Attributes.Insert(c.id, c.revision, name, value); err != nil {
			return errors.Wrap(err, "inserting content attribute")
		}
	}
	if c.oldRevision == 0 {
		if err := c.m.store.DeleteContentRevision(c.id, 0); err != nil {
			return errors.Wrap(err, "deleting work revision")
		}
	}
	return nil
}

// updateAttrs writes the minimal diff between the loaded bag and the
// current one.
func (c *Content) updateAttrs() error {
	for name, value := range c.attrs {
		old, existed := c.origAttrs[name]
		if !existed {
			if err := c.m.store.Attributes.Insert(c.id, c.revision, name, value); err != nil {
				return errors.Wrap(err, "inserting content attribute")
			}
		} else if old != value {
			if err := c.m.store.Attributes.Update(c.id, c.revision, name, value); err != nil {
				return errors.Wrap(err, "updating content attribute")
			}
		}
	}
	for name := range c.origAttrs {
		if _, exists := c.attrs[name]; !exists {
			if err := c.m.store.Attributes.Delete(c.id, c.revision, name); err != nil {
				return errors.Wrap(err, "deleting content attribute")
			}
		}
	}
	return nil
}

// remove deletes all children recursively, then this node's rows. The
// caller has already proven delete access to the subtree root, so a
// security failure on a child indicates inconsistent data and is converted
// into a content error.
func (c *Content) remove(user *User) error {

	childIDs, err := c.m.store.Content.ChildIDs(c.id)
	if err != nil {
		return errors.Wrap(err, "listing children")
	}
	for _, id := range childIDs {
		row, err := c.m.store.Content.Get(id, true)
		if err != nil {
			return errors.Wrap(err, "loading child")
		}
		if row == nil {
			continue
		}
		child, err := contentFromRow(c.m, row)
		if err != nil {
			return err
		}
		if err := child.Delete(user); err != nil {
			if IsSecurityError(err) {
				return errors.Errorf("no permission to delete child object %d of %s", id, c.describe())
			}
			return err
		}
	}

	if err := c.m.store.DeleteContent(c.domain, c.id); err != nil {
		return errors.Wrap(err, "deleting content")
	}

	if def := c.def(); def != nil && def.onDelete != nil {
		if err := def.onDelete(c); err != nil {
			return err
		}
	}
	return nil
}

func copyAttrs(attrs map[string]string) map[string]string {
	var copied = make(map[string]string, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}
	return copied
}

func unix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
