package content

import (
	"github.com/driftwood-cms/driftwood/data"
)

// Selector describes a content listing: which part of the tree, which
// category, how to sort and how to page. Zero values mean "no constraint";
// the manager fills in visibility defaults depending on its admin flag.
type Selector struct {
	domain      string
	parent      int
	rootOnly    bool
	category    Category
	sortKeys    []data.SortKey
	sortAttr    string
	sortAttrAsc bool
	limit       int
	offset      int
}

// NewSelector selects the root-level children of a domain.
func NewSelector(domain *Domain) *Selector {
	return &Selector{
		domain:   domain.name,
		rootOnly: true,
	}
}

// ByParent narrows the selection to the children of one node.
func (s *Selector) ByParent(parent *Content) *Selector {
	s.parent = parent.id
	s.rootOnly = false
	return s
}

// ByCategory narrows the selection to one category.
func (s *Selector) ByCategory(category Category) *Selector {
	s.category = category
	return s
}

// SortBy adds a sort key. Valid keys are id, revision, category, name,
// parent, online, modified and author.
func (s *Selector) SortBy(key string, ascending bool) *Selector {
	s.sortKeys = append(s.sortKeys, data.SortKey{Column: key, Ascending: ascending})
	return s
}

// SortByAttribute sorts by an attribute value instead of a column.
func (s *Selector) SortByAttribute(name string, ascending bool) *Selector {
	s.sortAttr = name
	s.sortAttrAsc = ascending
	return s
}

// Page limits the result to one page.
func (s *Selector) Page(limit, offset int) *Selector {
	s.limit = limit
	s.offset = offset
	return s
}

// query translates the selector for the data layer. Admin managers see the
// latest revisions sorted by category and name; public managers see only
// published, online revisions, newest first.
func (s *Selector) query(admin bool, now int64) *data.ContentQuery {

	var q = &data.ContentQuery{
		Domain:         s.domain,
		Parent:         s.parent,
		RootOnly:       s.rootOnly,
		Category:       int(s.category),
		SortKeys:       s.sortKeys,
		SortAttribute:  s.sortAttr,
		SortAttrAscend: s.sortAttrAsc,
		Limit:          s.limit,
		Offset:         s.offset,
	}

	if admin {
		q.RequireStatus = data.StatusLatest
		if len(q.SortKeys) == 0 && q.SortAttribute == "" {
			q.SortKeys = []data.SortKey{
				{Column: "category", Ascending: true},
				{Column: "name", Ascending: true},
			}
		}
	} else {
		q.RequireStatus = data.StatusPublished
		q.OnlineAt = now
		if len(q.SortKeys) == 0 && q.SortAttribute == "" {
			q.SortKeys = []data.SortKey{{Column: "online", Ascending: false}}
		}
	}

	return q
}
