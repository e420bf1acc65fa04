package content

import (
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is the process-wide memoization layer shared by the admin and the
// public manager. Content entries are keyed by id and the admin flag so the
// two views never serve each other's revisions; permission lists are keyed
// by their owner. Domain, host and site listings are kept as complete maps
// guarded by a mutex, since they are small and read on almost every request.
//
// The cache is invalidated eagerly on every write, not transactionally. A
// reader racing a not-yet-committed write can repopulate an entry with the
// old state; callers get best-effort consistency, not strict.
type Cache struct {
	objects *gocache.Cache

	mu              sync.Mutex
	domains         map[string]*Domain
	domainsComplete bool
	hosts           map[string]*Host
	hostsComplete   bool
	sites           map[string][]*Site
}

func NewCache() *Cache {
	return &Cache{
		objects: gocache.New(gocache.NoExpiration, 10*time.Minute),
		domains: map[string]*Domain{},
		hosts:   map[string]*Host{},
		sites:   map[string][]*Site{},
	}
}

func contentKey(id int, admin bool) string {
	return fmt.Sprintf("content:%d:%t", id, admin)
}

// permKey identifies a permission list by its owner. Content id zero means
// the domain itself.
func permKey(domain string, content int) string {
	return fmt.Sprintf("perm:%s:%d", domain, content)
}

func (c *Cache) getContent(id int, admin bool) *Content {
	if v, ok := c.objects.Get(contentKey(id, admin)); ok {
		return v.(*Content)
	}
	return nil
}

func (c *Cache) addContent(content *Content, admin bool) {
	c.objects.Set(contentKey(content.id, admin), content, gocache.NoExpiration)
}

func (c *Cache) getPermissions(domain string, content int) (*PermissionList, bool) {
	if v, ok := c.objects.Get(permKey(domain, content)); ok {
		return v.(*PermissionList), true
	}
	return nil, false
}

func (c *Cache) addPermissions(list *PermissionList) {
	c.objects.Set(permKey(list.domain, list.content), list, gocache.NoExpiration)
}

func (c *Cache) getDomain(name string) (*Domain, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.domains[name]
	return d, ok
}

func (c *Cache) getDomains() ([]*Domain, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.domainsComplete {
		return nil, false
	}
	var all = make([]*Domain, 0, len(c.domains))
	for _, d := range c.domains {
		all = append(all, d)
	}
	return all, true
}

func (c *Cache) addDomain(d *Domain) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.domains[d.name] = d
}

func (c *Cache) addDomains(all []*Domain) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.domains = map[string]*Domain{}
	for _, d := range all {
		c.domains[d.name] = d
	}
	c.domainsComplete = true
}

func (c *Cache) getHost(name string) (*Host, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hostsComplete {
		return nil, false
	}
	h, ok := c.hosts[name]
	return h, ok
}

func (c *Cache) addHosts(all []*Host) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hosts = map[string]*Host{}
	for _, h := range all {
		c.hosts[h.name] = h
	}
	c.hostsComplete = true
}

func (c *Cache) getSites(domain string) ([]*Site, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sites, ok := c.sites[domain]
	return sites, ok
}

func (c *Cache) addSites(domain string, sites []*Site) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sites[domain] = sites
}

// evict drops everything the given entity may have populated. Users, groups
// and locks are never cached, so their case is empty.
func (c *Cache) evict(r record) {
	switch v := r.(type) {
	case *Content:
		c.objects.Delete(contentKey(v.id, true))
		c.objects.Delete(contentKey(v.id, false))
		c.objects.Delete(permKey(v.domain, v.id))
		if v.category == CategorySite {
			c.mu.Lock()
			delete(c.sites, v.domain)
			c.mu.Unlock()
		}
	case *PermissionList:
		c.objects.Delete(permKey(v.domain, v.content))
	case *Domain:
		c.objects.Delete(permKey(v.name, 0))
		c.mu.Lock()
		delete(c.domains, v.name)
		c.domainsComplete = false
		delete(c.sites, v.name)
		c.mu.Unlock()
	case *Host:
		c.mu.Lock()
		delete(c.hosts, v.name)
		c.hostsComplete = false
		c.mu.Unlock()
	}
}

// reset drops the whole cache.
func (c *Cache) reset() {
	c.objects.Flush()
	c.mu.Lock()
	c.domains = map[string]*Domain{}
	c.domainsComplete = false
	c.hosts = map[string]*Host{}
	c.hostsComplete = false
	c.sites = map[string][]*Site{}
	c.mu.Unlock()
}
