package content_test

import (
	"testing"
	"time"

	"github.com/driftwood-cms/driftwood/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSiteEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	admin := content.NewUser(env.admin, nil, "admin")
	require.NoError(t, admin.Save(env.root))

	site, err := content.NewSite(env.admin, d)
	require.NoError(t, err)
	site.SetName("main")
	site.SetProtocol("http")
	site.SetHost("*")
	site.SetPort(0)
	site.SetDirectory("/")
	site.SetRevisionNumber(1)
	site.SetOnlineDate(time.Now().Add(-24 * time.Hour))
	require.NoError(t, site.Save(admin))

	found, err := env.public.FindSite("http", "anyhost", 80, "/index.html")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, site.ID(), found.ID())
}

func TestFindSitePrefersSpecificMatch(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	wildcard := env.createSite(t, d)

	specific, err := content.NewSite(env.admin, d)
	require.NoError(t, err)
	specific.SetName("www")
	specific.SetHost("www.example.com")
	specific.SetRevisionNumber(1)
	specific.SetOnlineDate(time.Now().Add(-24 * time.Hour))
	require.NoError(t, specific.Save(env.root))

	found, err := env.public.FindSite("http", "www.example.com", 80, "/")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, specific.ID(), found.ID())

	found, err = env.public.FindSite("http", "other.example.com", 80, "/")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, wildcard.ID(), found.ID())

	// protocol must match exactly
	found, err = env.public.FindSite("https", "www.example.com", 443, "/")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindSiteSkipsDraftsAndOffline(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	draft, err := content.NewSite(env.admin, d)
	require.NoError(t, err)
	draft.SetName("draft")
	require.NoError(t, draft.Save(env.root))

	offline, err := content.NewSite(env.admin, d)
	require.NoError(t, err)
	offline.SetName("future")
	offline.SetHost("future.example.com")
	offline.SetRevisionNumber(1)
	offline.SetOnlineDate(time.Now().Add(24 * time.Hour))
	require.NoError(t, offline.Save(env.root))

	found, err := env.public.FindSite("http", "anyhost", 80, "/")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindSiteRoutesByHost(t *testing.T) {
	env := newTestEnv(t)
	root := env.createDomain(t, "ROOT")
	other := env.createDomain(t, "OTHER")

	env.createSite(t, root)
	otherSite := env.createSite(t, other)

	host := content.NewHost(env.admin, other, "other.example.com")
	require.NoError(t, host.Save(env.root))

	found, err := env.public.FindSite("http", "other.example.com", 80, "/")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, otherSite.ID(), found.ID())

	// unknown hosts fall back to the ROOT domain
	found, err = env.public.FindSite("http", "unknown.example.com", 80, "/")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ROOT", found.DomainName())
}

func TestContentChildLookup(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")
	require.NoError(t, page.Save(env.root))

	found, err := env.admin.ContentChild(env.root, site.Content, "about")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, page.ID(), found.ID())

	missing, err := env.admin.ContentChild(env.root, site.Content, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	atRoot, err := env.admin.RootContentChild(env.root, d, "main")
	require.NoError(t, err)
	require.NotNil(t, atRoot)
	assert.Equal(t, site.ID(), atRoot.ID())
}

func TestContentChildrenFilterAndSort(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	for _, name := range []string{"beta", "alpha"} {
		folder, err := content.NewFolder(env.admin, site.Content)
		require.NoError(t, err)
		folder.SetName(name)
		require.NoError(t, folder.Save(env.root))
	}
	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")
	require.NoError(t, page.Save(env.root))

	all, err := env.admin.ContentChildren(env.root, site.Content, content.CategoryAny)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// admin default order: category, then name
	assert.Equal(t, "alpha", all[0].Name())
	assert.Equal(t, "beta", all[1].Name())
	assert.Equal(t, "about", all[2].Name())

	folders, err := env.admin.ContentChildren(env.root, site.Content, content.CategoryFolder)
	require.NoError(t, err)
	require.Len(t, folders, 2)

	count, err := env.admin.ContentCount(
		content.NewSelector(d).ByParent(site.Content).ByCategory(content.CategoryFolder))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSelectorListingHidesUnreadable(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	bob := content.NewUser(env.admin, d, "bob")
	require.NoError(t, bob.Save(env.root))

	open, err := content.NewFolder(env.admin, site.Content)
	require.NoError(t, err)
	open.SetName("open")
	require.NoError(t, open.Save(env.root))

	hidden, err := content.NewFolder(env.admin, site.Content)
	require.NoError(t, err)
	hidden.SetName("hidden")
	require.NoError(t, hidden.Save(env.root))

	domainList, err := env.admin.DomainPermissions(d)
	require.NoError(t, err)
	domainList.Add(content.Permission{Read: true})
	require.NoError(t, domainList.Save(env.root))

	hiddenList, err := env.admin.Permissions(hidden.Content, false)
	require.NoError(t, err)
	hiddenList.Add(content.Permission{User: "alice", Read: true})
	require.NoError(t, hiddenList.Save(env.root))

	children, err := env.admin.ContentChildren(bob, site.Content, content.CategoryAny)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "open", children[0].Name())
}

func TestDomainsVisibility(t *testing.T) {
	env := newTestEnv(t)
	root := env.createDomain(t, "ROOT")
	env.createDomain(t, "OTHER")

	// root grants everyone read, OTHER grants nothing
	list, err := env.admin.DomainPermissions(root)
	require.NoError(t, err)
	list.Add(content.Permission{Read: true})
	require.NoError(t, list.Save(env.root))

	all, err := env.admin.Domains(env.root)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	visible, err := env.admin.Domains(nil)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "ROOT", visible[0].Name())
}

func TestResetDropsCache(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	cached, err := env.admin.Content(env.root, site.ID())
	require.NoError(t, err)
	require.NotNil(t, cached)

	env.admin.Reset()

	reloaded, err := env.admin.Content(env.root, site.ID())
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, site.ID(), reloaded.ID())
}
