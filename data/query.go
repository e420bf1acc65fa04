package data

import (
	"fmt"
	"strings"
)

// ContentQuery describes a filtered, sorted, paged scan over content rows.
// It is built by the content package's selector and translated to
// parameterized SQL here. Sort keys are checked against a whitelist so
// selector input can never reach the SQL text.
type ContentQuery struct {
	Domain         string
	Parent         int   // children of this id; ignored if RootOnly
	RootOnly       bool  // root-level rows of the domain
	Category       int   // 0 = any
	RequireStatus  int   // bitmask rows must carry, 0 = any
	OnlineAt       int64 // unix seconds; if > 0, require the online window to cover it
	SortKeys       []SortKey
	SortAttribute  string // sort by this attribute value instead of a column
	SortAttrAscend bool
	Limit          int
	Offset         int
}

type SortKey struct {
	Column    string
	Ascending bool
}

var sortColumns = map[string]string{
	"id":       "id",
	"revision": "revision",
	"category": "category",
	"name":     "name",
	"parent":   "parent",
	"online":   "online",
	"modified": "modified",
	"author":   "author",
}

func (q *ContentQuery) build(selectCols string) (string, []interface{}, error) {

	var sb strings.Builder
	var args []interface{}

	sb.WriteString("SELECT ")
	sb.WriteString(selectCols)
	sb.WriteString(" FROM ls_content c")

	if q.SortAttribute != "" {
		sb.WriteString(" LEFT JOIN ls_attribute a ON a.content = c.id AND a.revision = c.revision AND a.name = ?")
		args = append(args, q.SortAttribute)
	}

	sb.WriteString(" WHERE c.domain = ?")
	args = append(args, q.Domain)

	if q.RootOnly {
		sb.WriteString(" AND c.parent = 0")
	} else {
		sb.WriteString(" AND c.parent = ?")
		args = append(args, q.Parent)
	}

	if q.Category != 0 {
		sb.WriteString(" AND c.category = ?")
		args = append(args, q.Category)
	}

	if q.RequireStatus != 0 {
		sb.WriteString(" AND (c.status & ?) != 0")
		args = append(args, q.RequireStatus)
	}

	if q.OnlineAt > 0 {
		sb.WriteString(" AND c.online > 0 AND c.online <= ? AND (c.offline = 0 OR c.offline > ?)")
		args = append(args, q.OnlineAt, q.OnlineAt)
	}

	var order []string
	if q.SortAttribute != "" {
		dir := "DESC"
		if q.SortAttrAscend {
			dir = "ASC"
		}
		order = append(order, "a.data "+dir)
	}
	for _, key := range q.SortKeys {
		col, ok := sortColumns[key.Column]
		if !ok {
			return "", nil, fmt.Errorf("invalid sort column %q", key.Column)
		}
		dir := "DESC"
		if key.Ascending {
			dir = "ASC"
		}
		order = append(order, "c."+col+" "+dir)
	}
	if len(order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(order, ", "))
	}

	if q.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.Limit, q.Offset)
	}

	return sb.String(), args, nil
}

// Select runs the query and returns the matching rows.
func (s *ContentStore) Select(q *ContentQuery) ([]*ContentRow, error) {

	const cols = "c.id, c.revision, c.domain, c.category, c.name, c.parent, c.online, c.offline, c.modified, c.author, c.comment, c.status"

	query, args, err := q.build(cols)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result = []*ContentRow{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Count runs the query without sorting or paging and returns the row count.
func (s *ContentStore) Count(q *ContentQuery) (int, error) {

	counted := *q
	counted.SortKeys = nil
	counted.SortAttribute = ""
	counted.Limit = 0
	counted.Offset = 0

	query, args, err := counted.build("COUNT(*)")
	if err != nil {
		return 0, err
	}

	var count int
	return count, s.db.QueryRow(query, args...).Scan(&count)
}
