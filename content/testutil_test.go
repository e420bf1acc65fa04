package content_test

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/driftwood-cms/driftwood/content"
	"github.com/driftwood-cms/driftwood/data"
	"github.com/driftwood-cms/driftwood/filestore"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store  *data.Store
	admin  *content.Manager
	public *content.Manager
	root   *content.User // transient superuser acting as installer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.sqlite3")+"?_busy_timeout=10000")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := data.NewStore(db)
	files := filestore.NewStore(filepath.Join(dir, "files"))
	public := content.NewManager(store, files, zerolog.Nop())
	admin := public.Admin()

	return &testEnv{
		store:  store,
		admin:  admin,
		public: public,
		root:   content.NewUser(admin, nil, "root"),
	}
}

func (e *testEnv) createDomain(t *testing.T, name string) *content.Domain {
	t.Helper()
	d := content.NewDomain(e.admin, name)
	require.NoError(t, d.Save(e.root))
	return d
}

// createSite saves a published site with defaults, online since yesterday.
func (e *testEnv) createSite(t *testing.T, d *content.Domain) *content.Site {
	t.Helper()
	site, err := content.NewSite(e.admin, d)
	require.NoError(t, err)
	site.SetName("main")
	site.SetRevisionNumber(1)
	site.SetOnlineDate(time.Now().Add(-24 * time.Hour))
	require.NoError(t, site.Save(e.root))
	return site
}
