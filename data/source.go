// Package data is the storage layer: row structs and prepared-statement
// stores over database/sql. It knows nothing about permissions, caching or
// the content tree; the content package composes it into higher-level
// operations.
package data

import (
	"database/sql"
)

// Status bits of a content revision row. They are recomputed by
// ContentStore.UpdateStatus after every write so that reads never need to
// scan all revisions of an id.
const (
	StatusLatest    = 1
	StatusPublished = 2
)

// Store bundles the per-table stores over one database handle.
// The schema is created on first use.
type Store struct {
	DB          *sql.DB
	Content     *ContentStore
	Attributes  *AttributeStore
	Domains     *DomainStore
	Hosts       *HostStore
	Users       *UserStore
	Groups      *GroupStore
	Permissions *PermissionStore
	Locks       *LockStore
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:          db,
		Content:     NewContentStore(db),
		Attributes:  NewAttributeStore(db),
		Domains:     NewDomainStore(db),
		Hosts:       NewHostStore(db),
		Users:       NewUserStore(db),
		Groups:      NewGroupStore(db),
		Permissions: NewPermissionStore(db),
		Locks:       NewLockStore(db),
	}
}

// DeleteContent removes one content id entirely: all revisions, attributes,
// permissions and the lock, if any.
func (s *Store) DeleteContent(domain string, id int) error {
	if err := s.Content.Delete(id); err != nil {
		return err
	}
	if err := s.Attributes.DeleteContent(id); err != nil {
		return err
	}
	if err := s.Permissions.DeleteByOwner(domain, id); err != nil {
		return err
	}
	return s.Locks.Delete(id)
}

// DeleteContentRevision removes one (id, revision) pair and its attributes.
func (s *Store) DeleteContentRevision(id, revision int) error {
	if err := s.Content.DeleteRevision(id, revision); err != nil {
		return err
	}
	return s.Attributes.DeleteRevision(id, revision)
}

// DeleteDomainData removes all rows belonging to a domain. Content
// attributes resolve their ids through the content rows, so they go first;
// the domain row itself is removed last so a failure leaves the domain
// discoverable.
func (s *Store) DeleteDomainData(name string) error {
	if err := s.Attributes.DeleteDomain(name); err != nil {
		return err
	}
	if err := s.Content.DeleteDomain(name); err != nil {
		return err
	}
	if err := s.Permissions.DeleteDomain(name); err != nil {
		return err
	}
	if err := s.Locks.DeleteDomain(name); err != nil {
		return err
	}
	if err := s.Hosts.DeleteDomain(name); err != nil {
		return err
	}
	return s.Domains.Delete(name)
}

func mustPrepare(db *sql.DB, query string) *sql.Stmt {
	stmt, err := db.Prepare(query)
	if err != nil {
		panic(err)
	}
	return stmt
}
