package data

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuild(t *testing.T) {
	q := &ContentQuery{
		Domain:        "ROOT",
		Parent:        7,
		Category:      4,
		RequireStatus: StatusPublished,
		OnlineAt:      1000,
		SortKeys:      []SortKey{{Column: "name", Ascending: true}},
		Limit:         10,
		Offset:        20,
	}

	query, args, err := q.build("COUNT(*)")
	require.NoError(t, err)
	assert.Contains(t, query, "c.domain = ?")
	assert.Contains(t, query, "c.parent = ?")
	assert.Contains(t, query, "c.category = ?")
	assert.Contains(t, query, "(c.status & ?) != 0")
	assert.Contains(t, query, "c.online > 0 AND c.online <= ?")
	assert.Contains(t, query, "ORDER BY c.name ASC")
	assert.Contains(t, query, "LIMIT ? OFFSET ?")
	assert.Equal(t, []interface{}{"ROOT", 7, 4, StatusPublished, int64(1000), int64(1000), 10, 20}, args)
}

func TestQueryBuildRootOnly(t *testing.T) {
	q := &ContentQuery{Domain: "ROOT", RootOnly: true}
	query, args, err := q.build("COUNT(*)")
	require.NoError(t, err)
	assert.Contains(t, query, "c.parent = 0")
	assert.Equal(t, []interface{}{"ROOT"}, args)
}

func TestQueryBuildAttributeSort(t *testing.T) {
	q := &ContentQuery{
		Domain:         "ROOT",
		RootOnly:       true,
		SortAttribute:  "SUBJECT",
		SortAttrAscend: true,
	}
	query, args, err := q.build("c.id")
	require.NoError(t, err)
	assert.Contains(t, query, "LEFT JOIN ls_attribute a")
	assert.Contains(t, query, "ORDER BY a.data ASC")
	assert.Equal(t, "SUBJECT", args[0])
}

func TestQueryBuildRejectsUnknownSortKey(t *testing.T) {
	q := &ContentQuery{
		Domain:   "ROOT",
		RootOnly: true,
		SortKeys: []SortKey{{Column: "name; DROP TABLE ls_content"}},
	}
	_, _, err := q.build("COUNT(*)")
	require.Error(t, err)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db)
}

func TestStatusUpdate(t *testing.T) {
	store := newTestStore(t)

	insert := func(id, revision int) {
		require.NoError(t, store.Content.Insert(&ContentRow{
			ID: id, Revision: revision, Domain: "ROOT", Category: 4, Name: "page",
		}))
	}

	// only a work revision: it is latest, nothing is published
	insert(1, 0)
	row, err := store.Content.GetRevision(1, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusLatest, row.Status)

	// adding revision 1 publishes it, the work copy stays latest
	insert(1, 1)
	row, err = store.Content.GetRevision(1, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusLatest, row.Status)
	row, err = store.Content.GetRevision(1, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, row.Status)

	// without a work copy the highest revision is both
	require.NoError(t, store.Content.DeleteRevision(1, 0))
	row, err = store.Content.GetRevision(1, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusLatest|StatusPublished, row.Status)
}

func TestGetRespectsAdminFlag(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Content.Insert(&ContentRow{
		ID: 1, Revision: 0, Domain: "ROOT", Category: 4, Name: "draft-only",
	}))

	// drafts are invisible to the public reader
	row, err := store.Content.Get(1, false)
	require.NoError(t, err)
	assert.Nil(t, row)

	row, err = store.Content.Get(1, true)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 0, row.Revision)

	require.NoError(t, store.Content.Insert(&ContentRow{
		ID: 1, Revision: 3, Domain: "ROOT", Category: 4, Name: "published",
	}))

	// the admin reader still prefers the work copy
	row, err = store.Content.Get(1, true)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 0, row.Revision)

	row, err = store.Content.Get(1, false)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 3, row.Revision)
}

func TestInsertAssignsIDs(t *testing.T) {
	store := newTestStore(t)

	first := &ContentRow{Domain: "ROOT", Category: 4, Name: "a"}
	require.NoError(t, store.Content.Insert(first))
	assert.Equal(t, 1, first.ID)

	second := &ContentRow{Domain: "ROOT", Category: 4, Name: "b"}
	require.NoError(t, store.Content.Insert(second))
	assert.Equal(t, 2, second.ID)

	// an explicit id is kept, for new revisions of an existing node
	third := &ContentRow{ID: 1, Revision: 1, Domain: "ROOT", Category: 4, Name: "a"}
	require.NoError(t, store.Content.Insert(third))
	assert.Equal(t, 1, third.ID)
}
