package content_test

import (
	"testing"
	"time"

	"github.com/driftwood-cms/driftwood/content"
	"github.com/driftwood-cms/driftwood/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndReload(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	site, err := content.NewSite(env.admin, d)
	require.NoError(t, err)
	site.SetName("main")
	require.False(t, site.IsPersistent())

	require.NoError(t, site.Save(env.root))
	assert.True(t, site.IsPersistent())
	assert.NotZero(t, site.ID())

	reloaded, err := env.admin.Content(env.root, site.ID())
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, site.ID(), reloaded.ID())
	assert.Equal(t, 0, reloaded.RevisionNumber())
	assert.Equal(t, "main", reloaded.Name())
	assert.Equal(t, content.CategorySite, reloaded.Category())
}

func TestDraftPromotion(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	site, err := content.NewSite(env.admin, d)
	require.NoError(t, err)
	site.SetName("main")
	require.NoError(t, site.Save(env.root))
	require.Equal(t, 0, site.RevisionNumber())

	site.SetRevisionNumber(1)
	require.NoError(t, site.Save(env.root))

	// the work revision is gone, exactly revision 1 remains
	revisions, err := site.Revisions()
	require.NoError(t, err)
	require.Len(t, revisions, 1)
	assert.Equal(t, 1, revisions[0].RevisionNumber())
	assert.True(t, revisions[0].IsLatestRevision())
	assert.True(t, revisions[0].IsPublishedRevision())

	work, err := site.Revision(0)
	require.NoError(t, err)
	assert.Nil(t, work)
}

func TestRevisionHistory(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	site.SetRevisionNumber(2)
	site.SetComment("second take")
	require.NoError(t, site.Save(env.root))

	revisions, err := site.Revisions()
	require.NoError(t, err)
	require.Len(t, revisions, 2)
	assert.Equal(t, 2, revisions[0].RevisionNumber())
	assert.True(t, revisions[0].IsPublishedRevision())
	assert.False(t, revisions[1].IsPublishedRevision())

	max, err := site.MaxRevisionNumber()
	require.NoError(t, err)
	assert.Equal(t, 2, max)

	// removing the newest revision moves the published flag back
	require.NoError(t, revisions[0].DeleteRevision(env.root))
	remaining, err := site.Revisions()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, 1, remaining[0].RevisionNumber())
	assert.True(t, remaining[0].IsPublishedRevision())
	assert.True(t, remaining[0].IsLatestRevision())
}

func TestNonAdminVisibility(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	// wildcard read so visibility is decided by the online filter alone
	list, err := env.admin.DomainPermissions(d)
	require.NoError(t, err)
	list.Add(content.Permission{Read: true})
	require.NoError(t, list.Save(env.root))

	site := env.createSite(t, d)

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")
	require.NoError(t, page.Save(env.root))

	// a draft is never served to the public view
	got, err := env.public.Content(nil, page.ID())
	require.NoError(t, err)
	assert.Nil(t, got)

	page.SetRevisionNumber(1)
	page.SetOnlineDate(time.Now().Add(time.Hour))
	require.NoError(t, page.Save(env.root))

	// published but not yet online
	got, err = env.public.Content(nil, page.ID())
	require.NoError(t, err)
	assert.Nil(t, got)

	page.SetOnlineDate(time.Now().Add(-time.Hour))
	require.NoError(t, page.Save(env.root))

	got, err = env.public.Content(nil, page.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.RevisionNumber())

	// the admin view still prefers drafts
	got, err = env.admin.Content(env.root, page.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestSiblingNameUniqueness(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	first, err := content.NewFolder(env.admin, site.Content)
	require.NoError(t, err)
	first.SetName("docs")
	require.NoError(t, first.Save(env.root))

	second, err := content.NewFolder(env.admin, site.Content)
	require.NoError(t, err)
	second.SetName("docs")
	err = second.Save(env.root)
	require.Error(t, err)
	assert.False(t, second.IsPersistent())
	assert.False(t, content.IsSecurityError(err))
}

func TestSectionNameUniquenessAcrossCategories(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	hub, err := content.NewSection(env.admin, d, nil)
	require.NoError(t, err)
	hub.SetName("hub")
	require.NoError(t, hub.Save(env.root))

	// a page may share its name with a section
	page, err := content.NewPage(env.admin, hub.Content)
	require.NoError(t, err)
	page.SetName("news")
	require.NoError(t, page.Save(env.root))

	first, err := content.NewSection(env.admin, d, hub)
	require.NoError(t, err)
	first.SetName("news")
	require.NoError(t, first.Save(env.root))

	// a second section may not, even with the page in between
	second, err := content.NewSection(env.admin, d, hub)
	require.NoError(t, err)
	second.SetName("news")
	err = second.Save(env.root)
	require.Error(t, err)
	assert.False(t, second.IsPersistent())
	assert.False(t, content.IsSecurityError(err))
}

func TestTopicAutoNaming(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	section, err := content.NewSection(env.admin, d, nil)
	require.NoError(t, err)
	section.SetName("community")
	require.NoError(t, section.Save(env.root))

	forum, err := content.NewForum(env.admin, section)
	require.NoError(t, err)
	forum.SetName("general")
	forum.SetRealName("General")
	require.NoError(t, forum.Save(env.root))

	first, err := content.NewTopic(env.admin, forum)
	require.NoError(t, err)
	first.SetSubject("hello")
	require.NoError(t, first.Save(env.root))
	assert.Equal(t, "1", first.Name())

	second, err := content.NewTopic(env.admin, forum)
	require.NoError(t, err)
	second.SetSubject("world")
	require.NoError(t, second.Save(env.root))
	assert.Equal(t, "2", second.Name())
}

func TestPostTouchesTopic(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	section, err := content.NewSection(env.admin, d, nil)
	require.NoError(t, err)
	section.SetName("community")
	require.NoError(t, section.Save(env.root))

	forum, err := content.NewForum(env.admin, section)
	require.NoError(t, err)
	forum.SetName("general")
	forum.SetRealName("General")
	require.NoError(t, forum.Save(env.root))

	topic, err := content.NewTopic(env.admin, forum)
	require.NoError(t, err)
	topic.SetSubject("hello")
	require.NoError(t, topic.Save(env.root))
	created := topic.ModifiedDate()

	post, err := content.NewPost(env.admin, topic)
	require.NoError(t, err)
	post.SetText("first!")
	require.NoError(t, post.Save(env.root))

	reloaded, err := env.admin.Content(env.root, topic.ID())
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.False(t, reloaded.ModifiedDate().Before(created))
	assert.False(t, reloaded.ModifiedDate().IsZero())
}

func TestPostNumberingSkipsOtherChildren(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	section, err := content.NewSection(env.admin, d, nil)
	require.NoError(t, err)
	section.SetName("community")
	require.NoError(t, section.Save(env.root))

	forum, err := content.NewForum(env.admin, section)
	require.NoError(t, err)
	forum.SetName("general")
	forum.SetRealName("General")
	require.NoError(t, forum.Save(env.root))

	topic, err := content.NewTopic(env.admin, forum)
	require.NoError(t, err)
	topic.SetSubject("hello")
	require.NoError(t, topic.Save(env.root))

	first, err := content.NewPost(env.admin, topic)
	require.NoError(t, err)
	first.SetText("first!")
	require.NoError(t, first.Save(env.root))
	assert.Equal(t, "1", first.Name())

	// a non-post child must not derail the numbering
	folder, err := content.NewFolder(env.admin, topic.Content)
	require.NoError(t, err)
	folder.SetName("attachments")
	require.NoError(t, folder.Save(env.root))

	second, err := content.NewPost(env.admin, topic)
	require.NoError(t, err)
	second.SetText("second!")
	require.NoError(t, second.Save(env.root))
	assert.Equal(t, "2", second.Name())
}

func TestRestoreChecksParentChain(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")

	// a parent loop, as a broken backup would contain
	require.NoError(t, env.store.Content.Insert(&data.ContentRow{
		ID: 100, Domain: "ROOT", Category: int(content.CategoryFolder), Name: "a", Parent: 101,
	}))
	require.NoError(t, env.store.Content.Insert(&data.ContentRow{
		ID: 101, Domain: "ROOT", Category: int(content.CategoryFolder), Name: "b", Parent: 100,
	}))

	looped, err := content.NewContent(env.admin, d, content.CategoryPage)
	require.NoError(t, err)
	looped.SetName("looped")
	looped.SetParentID(100)
	err = looped.Restore(env.root)
	require.Error(t, err)
	assert.False(t, content.IsSecurityError(err))
	assert.False(t, looped.IsPersistent())

	// a missing parent is rejected the same way
	stray, err := content.NewContent(env.admin, d, content.CategoryPage)
	require.NoError(t, err)
	stray.SetName("stray")
	stray.SetParentID(999)
	err = stray.Restore(env.root)
	require.Error(t, err)
	assert.False(t, content.IsSecurityError(err))
	assert.False(t, stray.IsPersistent())
}

func TestDeleteCascades(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	folder, err := content.NewFolder(env.admin, site.Content)
	require.NoError(t, err)
	folder.SetName("docs")
	require.NoError(t, folder.Save(env.root))

	page, err := content.NewPage(env.admin, folder.Content)
	require.NoError(t, err)
	page.SetName("readme")
	require.NoError(t, page.Save(env.root))

	require.NoError(t, site.Delete(env.root))

	for _, id := range []int{site.ID(), folder.ID(), page.ID()} {
		got, err := env.admin.Content(env.root, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestDomainDeleteRemovesAttributes(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")
	page.SetElement("body", "hello")
	require.NoError(t, page.Save(env.root))

	require.NoError(t, d.Delete(env.root))

	attrs, err := env.store.Attributes.Get(page.ID(), 0)
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestCacheConsistencyAfterDelete(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	// populate the cache
	cached, err := env.admin.Content(env.root, site.ID())
	require.NoError(t, err)
	require.NotNil(t, cached)

	require.NoError(t, cached.Delete(env.root))

	got, err := env.admin.Content(env.root, site.ID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAttributeDiffUpdate(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")
	page.SetElement("body", "hello")
	page.SetElement("title", "About")
	require.NoError(t, page.Save(env.root))

	page.SetElement("body", "hello world")
	page.SetElement("title", "") // removes the element
	require.NoError(t, page.Save(env.root))

	reloaded, err := env.admin.Content(env.root, page.ID())
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	body, err := reloaded.AsPage().Element("body")
	require.NoError(t, err)
	assert.Equal(t, "hello world", body)
	title, err := reloaded.AsPage().Element("title")
	require.NoError(t, err)
	assert.Equal(t, "", title)
}

func TestPageTemplateInheritance(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	tpl, err := content.NewTemplate(env.admin, d)
	require.NoError(t, err)
	tpl.SetName("base")
	tpl.SetElement("footer", "(c) driftwood")
	tpl.SetElement("body", "template body")
	require.NoError(t, tpl.Save(env.root))

	page, err := content.NewPage(env.admin, site.Content)
	require.NoError(t, err)
	page.SetName("about")
	page.SetTemplateID(tpl.ID())
	page.SetElement("body", "page body")
	require.NoError(t, page.Save(env.root))

	body, err := page.Element("body")
	require.NoError(t, err)
	assert.Equal(t, "page body", body)

	footer, err := page.Element("footer")
	require.NoError(t, err)
	assert.Equal(t, "(c) driftwood", footer)

	names, err := page.ElementNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "footer"}, names)
}

func TestLockLifecycle(t *testing.T) {
	env := newTestEnv(t)
	d := env.createDomain(t, "ROOT")
	site := env.createSite(t, d)

	lock := content.NewLock(env.admin, site.Content, env.root)
	require.NoError(t, lock.Save(env.root))

	got, err := env.admin.LockOf(site.Content)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "root", got.UserName())
	assert.True(t, got.IsOwner(env.root))

	// a second lock on the same node must fail
	other := content.NewLock(env.admin, site.Content, env.root)
	require.Error(t, other.Save(env.root))

	// locks cannot be updated
	require.Error(t, got.Save(env.root))

	require.NoError(t, got.Delete(env.root))
	gone, err := env.admin.LockOf(site.Content)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
