package content_test

import (
	"testing"

	"github.com/driftwood-cms/driftwood/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionInheritance(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	editors := content.NewGroup(env.admin, d, "editors")
	require.NoError(t, editors.Save(env.root))

	alice := content.NewUser(env.admin, d, "alice")
	alice.AddToGroup(editors)
	require.NoError(t, alice.Save(env.root))

	bob := content.NewUser(env.admin, d, "bob")
	require.NoError(t, bob.Save(env.root))

	// the grant sits on the domain, the page has no list of its own
	list, err := env.admin.DomainPermissions(d)
	require.NoError(t, err)
	list.Add(content.Permission{Group: "editors", Read: true})
	require.NoError(t, list.Save(env.root))

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")
	require.NoError(t, page.Save(env.root))

	readable, err := page.HasReadAccess(alice)
	require.NoError(t, err)
	assert.True(t, readable)

	readable, err = page.HasReadAccess(bob)
	require.NoError(t, err)
	assert.False(t, readable)

	// anonymous users match only wildcards
	readable, err = page.HasReadAccess(nil)
	require.NoError(t, err)
	assert.False(t, readable)
}

func TestFirstNonEmptyListWins(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	// domain grants everyone read
	domainList, err := env.admin.DomainPermissions(d)
	require.NoError(t, err)
	domainList.Add(content.Permission{Read: true})
	require.NoError(t, domainList.Save(env.root))

	bob := content.NewUser(env.admin, d, "bob")
	require.NoError(t, bob.Save(env.root))

	folder, err := content.NewFolder(env.admin, site.Content)
	require.NoError(t, err)
	folder.SetName("private")
	require.NoError(t, folder.Save(env.root))

	// the folder's own list names only alice, hiding the domain wildcard
	folderList, err := env.admin.Permissions(folder.Content, false)
	require.NoError(t, err)
	folderList.Add(content.Permission{User: "alice", Read: true})
	require.NoError(t, folderList.Save(env.root))

	readable, err := folder.HasReadAccess(bob)
	require.NoError(t, err)
	assert.False(t, readable)

	// the sibling-level site still inherits the domain wildcard
	readable, err = site.HasReadAccess(bob)
	require.NoError(t, err)
	assert.True(t, readable)
}

func TestWildcardPermission(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	list, err := env.admin.DomainPermissions(d)
	require.NoError(t, err)
	list.Add(content.Permission{Read: true})
	require.NoError(t, list.Save(env.root))

	readable, err := site.HasReadAccess(nil)
	require.NoError(t, err)
	assert.True(t, readable)

	writable, err := site.HasWriteAccess(nil)
	require.NoError(t, err)
	assert.False(t, writable)
}

func TestSuperuserBypass(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	// no permission list anywhere, still full access
	for _, check := range []func(*content.User) (bool, error){
		site.HasReadAccess, site.HasWriteAccess, site.HasPublishAccess, site.HasAdminAccess,
	} {
		allowed, err := check(env.root)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestSaveDeniedWithoutPermission(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	bob := content.NewUser(env.admin, d, "bob")
	require.NoError(t, bob.Save(env.root))

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")

	err = page.Save(bob)
	require.Error(t, err)
	assert.True(t, content.IsSecurityError(err))
	assert.False(t, page.IsPersistent())
}

func TestPublishRequiresPublishGrant(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	writer := content.NewUser(env.admin, d, "writer")
	require.NoError(t, writer.Save(env.root))

	list, err := env.admin.DomainPermissions(d)
	require.NoError(t, err)
	list.Add(content.Permission{User: "writer", Read: true, Write: true})
	require.NoError(t, list.Save(env.root))

	// drafts only need write access
	draft, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	draft.SetName("draft")
	require.NoError(t, draft.Save(writer))

	// a numbered revision needs publish access
	published, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	published.SetName("published")
	published.SetRevisionNumber(1)
	err = published.Save(writer)
	require.Error(t, err)
	assert.True(t, content.IsSecurityError(err))
}

func TestDomainRequiresSuperuser(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	bob := content.NewUser(env.admin, d, "bob")
	require.NoError(t, bob.Save(env.root))

	other := content.NewDomain(env.admin, "OTHER")
	err := other.Save(bob)
	require.Error(t, err)
	assert.True(t, content.IsSecurityError(err))

	require.NoError(t, other.Save(env.root))
}

func TestRestoreRequiresSuperuser(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	bob := content.NewUser(env.admin, d, "bob")
	require.NoError(t, bob.Save(env.root))

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("imported")

	err = page.Restore(bob)
	require.Error(t, err)
	assert.True(t, content.IsSecurityError(err))

	require.NoError(t, page.Restore(env.root))
	assert.True(t, page.IsPersistent())
}
