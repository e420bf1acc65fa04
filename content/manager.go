package content

import (
	"sort"
	"strings"
	"time"

	"github.com/driftwood-cms/driftwood/data"
	"github.com/driftwood-cms/driftwood/filestore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Manager is the single entry point for all reads and the factory for new
// entities. A public manager serves only published, online revisions; the
// admin view returned by Admin prefers the work revision and skips the
// online filter. Both views share one store and one cache.
//
// Lookups that find nothing return a nil entity and no error. Lookups the
// user may not read fail with a SecurityError.
type Manager struct {
	store *data.Store
	files *filestore.Store
	cache *Cache
	admin bool
	log   zerolog.Logger
}

func NewManager(store *data.Store, files *filestore.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store: store,
		files: files,
		cache: NewCache(),
		log:   logger,
	}
}

// Admin returns the admin view on the same store and cache.
func (m *Manager) Admin() *Manager {
	if m.admin {
		return m
	}
	var a = *m
	a.admin = true
	return &a
}

func (m *Manager) IsAdmin() bool {
	return m.admin
}

// Reset drops the whole cache. The next lookups reload from storage.
func (m *Manager) Reset() {
	m.cache.reset()
}

// logError logs a content or storage problem at error level and passes it
// through.
func (m *Manager) logError(err error) error {
	if err != nil {
		m.log.Error().Err(err).Msg("content error")
	}
	return err
}

// logDenied logs a denial at info level; an unexpected storage failure
// during the check still goes to error level.
func (m *Manager) logDenied(err error) error {
	if err == nil {
		return nil
	}
	if IsSecurityError(err) {
		m.log.Info().Err(err).Msg("access denied")
	} else {
		m.log.Error().Err(err).Msg("content error")
	}
	return err
}

// Domains returns the domains the user may read, sorted by name.
func (m *Manager) Domains(user *User) ([]*Domain, error) {

	all, ok := m.cache.getDomains()
	if !ok {
		rows, err := m.store.Domains.GetAll()
		if err != nil {
			return nil, m.logError(errors.Wrap(err, "loading domains"))
		}
		all = make([]*Domain, 0, len(rows))
		for _, row := range rows {
			d, err := domainFromRow(m, row)
			if err != nil {
				return nil, m.logError(err)
			}
			all = append(all, d)
		}
		m.cache.addDomains(all)
	}

	var visible = []*Domain{}
	for _, d := range all {
		readable, err := m.hasAccess(user, d, readAccess)
		if err != nil {
			return nil, m.logError(err)
		}
		if readable {
			visible = append(visible, d)
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].name < visible[j].name })
	return visible, nil
}

// Domain returns one domain, or nil if it does not exist.
func (m *Manager) Domain(user *User, name string) (*Domain, error) {
	name = strings.ToUpper(name)

	d, ok := m.cache.getDomain(name)
	if !ok {
		row, err := m.store.Domains.Get(name)
		if err != nil {
			return nil, m.logError(errors.Wrap(err, "loading domain"))
		}
		if row == nil {
			return nil, nil
		}
		d, err = domainFromRow(m, row)
		if err != nil {
			return nil, m.logError(err)
		}
		m.cache.addDomain(d)
	}

	readable, err := m.hasAccess(user, d, readAccess)
	if err != nil {
		return nil, m.logError(err)
	}
	if !readable {
		return nil, m.logDenied(newSecurityError(user, "read", d.describe()))
	}
	return d, nil
}

// Content returns one node by id, or nil if it does not exist or is not
// visible in this view.
func (m *Manager) Content(user *User, id int) (*Content, error) {

	c := m.cache.getContent(id, m.admin)
	if c == nil {
		row, err := m.store.Content.Get(id, m.admin)
		if err != nil {
			return nil, m.logError(errors.Wrap(err, "loading content"))
		}
		if row == nil {
			return nil, nil
		}
		c, err = contentFromRow(m, row)
		if err != nil {
			return nil, m.logError(err)
		}
		m.cache.addContent(c, m.admin)
	}

	return m.postProcess(user, c)
}

// ContentChild returns the named child of a node.
func (m *Manager) ContentChild(user *User, parent *Content, name string) (*Content, error) {
	return m.contentByName(user, parent.domain, parent.id, name)
}

// RootContentChild returns the named root-level node of a domain.
func (m *Manager) RootContentChild(user *User, domain *Domain, name string) (*Content, error) {
	return m.contentByName(user, domain.name, 0, name)
}

func (m *Manager) contentByName(user *User, domain string, parent int, name string) (*Content, error) {
	statusFlag := data.StatusPublished
	if m.admin {
		statusFlag = data.StatusLatest
	}
	row, err := m.store.Content.GetByName(domain, parent, name, statusFlag)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading content by name"))
	}
	if row == nil {
		return nil, nil
	}
	c, err := contentFromRow(m, row)
	if err != nil {
		return nil, m.logError(err)
	}
	return m.postProcess(user, c)
}

// ContentChildren returns the visible children of a node, optionally
// narrowed to one category. Unreadable items are filtered out silently.
func (m *Manager) ContentChildren(user *User, parent *Content, category Category) ([]*Content, error) {
	sel := NewSelector(&Domain{name: parent.domain}).ByParent(parent).ByCategory(category)
	return m.ContentBySelector(user, sel)
}

// RootContentChildren returns the visible root-level nodes of a domain.
func (m *Manager) RootContentChildren(user *User, domain *Domain, category Category) ([]*Content, error) {
	return m.ContentBySelector(user, NewSelector(domain).ByCategory(category))
}

// ContentBySelector runs a selector and returns the visible results.
// Single-item security errors do not surface here; items the user may not
// read are dropped from the listing.
func (m *Manager) ContentBySelector(user *User, sel *Selector) ([]*Content, error) {

	rows, err := m.store.Content.Select(sel.query(m.admin, time.Now().Unix()))
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "selecting content"))
	}

	var result = []*Content{}
	for _, row := range rows {
		c, err := contentFromRow(m, row)
		if err != nil {
			return nil, m.logError(err)
		}
		readable, err := m.hasAccess(user, c, readAccess)
		if err != nil {
			return nil, m.logError(err)
		}
		if readable {
			result = append(result, c)
		}
	}
	return result, nil
}

// ContentCount counts the rows a selector matches, before per-item
// permission filtering.
func (m *Manager) ContentCount(sel *Selector) (int, error) {
	count, err := m.store.Content.Count(sel.query(m.admin, time.Now().Unix()))
	return count, m.logError(errors.Wrap(err, "counting content"))
}

// postProcess applies the two visibility filters every single-item lookup
// shares: an unreadable node is a security error, an offline one is merely
// invisible and returns nil.
func (m *Manager) postProcess(user *User, c *Content) (*Content, error) {
	if c == nil {
		return nil, nil
	}
	readable, err := m.hasAccess(user, c, readAccess)
	if err != nil {
		return nil, m.logError(err)
	}
	if !readable {
		return nil, m.logDenied(newSecurityError(user, "read", c.describe()))
	}
	if !m.admin {
		if c.revision == 0 || !c.IsOnline() {
			return nil, nil
		}
	}
	return c, nil
}

// FindSite resolves the site serving a request. The host name picks the
// domain, unknown hosts fall back to the ROOT domain. Among the domain's
// published, online sites the best match score wins; on a tie the first
// one found is kept.
func (m *Manager) FindSite(protocol, host string, port int, path string) (*Site, error) {

	h, err := m.Host(host)
	if err != nil {
		return nil, err
	}
	domainName := RootDomainName
	if h != nil {
		domainName = h.domain
	}

	sites, err := m.sites(domainName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var best *Site
	var bestScore int
	for _, site := range sites {
		if site.revision <= 0 || !site.isOnlineAt(now) {
			continue
		}
		if score := site.matchScore(protocol, host, port, path); score > bestScore {
			best, bestScore = site, score
		}
	}
	return best, nil
}

// Host returns one host by name, or nil. All hosts are loaded and cached
// together since every request resolves one.
func (m *Manager) Host(name string) (*Host, error) {
	name = strings.ToLower(name)
	if h, ok := m.cache.getHost(name); ok {
		return h, nil
	}
	rows, err := m.store.Hosts.GetAll()
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading hosts"))
	}
	var all = make([]*Host, 0, len(rows))
	for _, row := range rows {
		all = append(all, hostFromRow(m, row))
	}
	m.cache.addHosts(all)
	h, _ := m.cache.getHost(name)
	return h, nil
}

// DomainHosts returns the hosts routing to a domain.
func (m *Manager) DomainHosts(domain *Domain) ([]*Host, error) {
	rows, err := m.store.Hosts.GetByDomain(domain.name)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading hosts"))
	}
	var result = make([]*Host, 0, len(rows))
	for _, row := range rows {
		result = append(result, hostFromRow(m, row))
	}
	return result, nil
}

// sites returns the published sites of a domain, cached per domain.
func (m *Manager) sites(domain string) ([]*Site, error) {
	if sites, ok := m.cache.getSites(domain); ok {
		return sites, nil
	}
	sites, err := m.siteRows(domain, false)
	if err != nil {
		return nil, err
	}
	m.cache.addSites(domain, sites)
	return sites, nil
}

// siteRows loads the sites of a domain straight from storage: the latest
// revisions for validation, the published ones for request matching.
func (m *Manager) siteRows(domain string, latest bool) ([]*Site, error) {
	statusFlag := data.StatusPublished
	if latest {
		statusFlag = data.StatusLatest
	}
	rows, err := m.store.Content.Select(&data.ContentQuery{
		Domain:        domain,
		RootOnly:      true,
		Category:      int(CategorySite),
		RequireStatus: statusFlag,
		SortKeys:      []data.SortKey{{Column: "id", Ascending: true}},
	})
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading sites"))
	}
	var sites = make([]*Site, 0, len(rows))
	for _, row := range rows {
		c, err := contentFromRow(m, row)
		if err != nil {
			return nil, m.logError(err)
		}
		sites = append(sites, &Site{c})
	}
	return sites, nil
}

// User returns one user, or nil. A nil domain looks up superusers; with a
// domain, a missing domain user falls back to the superusers so they can
// log in everywhere.
func (m *Manager) User(domain *Domain, name string) (*User, error) {
	domainName := ""
	if domain != nil {
		domainName = domain.name
	}
	return m.UserByName(domainName, name)
}

// UserByName is User for callers that only know the domain name, like the
// login handler. User records are publicly readable, so no access check
// applies.
func (m *Manager) UserByName(domainName, name string) (*User, error) {
	domainName = strings.ToUpper(domainName)
	row, err := m.store.Users.Get(domainName, name)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading user"))
	}
	if row == nil && domainName != "" {
		row, err = m.store.Users.Get("", name)
		if err != nil {
			return nil, m.logError(errors.Wrap(err, "loading user"))
		}
	}
	if row == nil {
		return nil, nil
	}
	return userFromRow(m, row), nil
}

// UserByEmail returns the first user of a domain with the given email
// address, or nil.
func (m *Manager) UserByEmail(domain *Domain, email string) (*User, error) {
	row, err := m.store.Users.GetByEmail(domain.name, email)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading user"))
	}
	if row == nil {
		return nil, nil
	}
	return userFromRow(m, row), nil
}

// Users returns one page of a domain's users whose names contain filter.
func (m *Manager) Users(domain *Domain, filter string, limit, offset int) ([]*User, error) {
	rows, err := m.store.Users.Filter(domain.name, filter, limit, offset)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading users"))
	}
	var result = make([]*User, 0, len(rows))
	for _, row := range rows {
		result = append(result, userFromRow(m, row))
	}
	return result, nil
}

func (m *Manager) UserCount(domain *Domain, filter string) (int, error) {
	count, err := m.store.Users.CountFilter(domain.name, filter)
	return count, m.logError(errors.Wrap(err, "counting users"))
}

// Group returns one group, or nil.
func (m *Manager) Group(domain *Domain, name string) (*Group, error) {
	row, err := m.store.Groups.Get(domain.name, name)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading group"))
	}
	if row == nil {
		return nil, nil
	}
	return groupFromRow(m, row), nil
}

// Groups returns all groups of a domain, sorted by name.
func (m *Manager) Groups(domain *Domain) ([]*Group, error) {
	rows, err := m.store.Groups.GetByDomain(domain.name)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading groups"))
	}
	var result = make([]*Group, 0, len(rows))
	for _, row := range rows {
		result = append(result, groupFromRow(m, row))
	}
	return result, nil
}

// Permissions returns the list attached directly to a content node. With
// inherit, the effective list after walking up the tree is returned
// instead; it may belong to an ancestor or the domain.
func (m *Manager) Permissions(c *Content, inherit bool) (*PermissionList, error) {
	if inherit {
		list, err := m.effectivePermissions(c.domain, c.id)
		return list, m.logError(err)
	}
	list, err := m.ownPermissions(c.domain, c.id)
	return list, m.logError(err)
}

// DomainPermissions returns the list attached to the domain itself.
func (m *Manager) DomainPermissions(d *Domain) (*PermissionList, error) {
	list, err := m.ownPermissions(d.name, 0)
	return list, m.logError(err)
}

// LockOf returns the lock on a content node, or nil if it is not locked.
func (m *Manager) LockOf(c *Content) (*Lock, error) {
	row, err := m.store.Locks.Get(c.id)
	if err != nil {
		return nil, m.logError(errors.Wrap(err, "loading lock"))
	}
	if row == nil {
		return nil, nil
	}
	return lockFromRow(m, row), nil
}

// checkParentChain verifies that a parent chain reaches the domain root
// without repeating a node. Used when restoring raw data, where the normal
// construction-order guarantee does not hold.
func (m *Manager) checkParentChain(domain string, parent int) error {
	var seen = map[int]bool{}
	for id := parent; id != 0; {
		if seen[id] || len(seen) > maxTreeDepth {
			return errors.Errorf("parent chain of domain %s contains a cycle at %d", domain, id)
		}
		seen[id] = true
		row, err := m.store.Content.Get(id, true)
		if err != nil {
			return errors.Wrap(err, "checking parent chain")
		}
		if row == nil {
			return errors.Errorf("parent object %d not found", id)
		}
		id = row.Parent
	}
	return nil
}
