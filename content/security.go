package content

import (
	"github.com/pkg/errors"
)

// The security manager: capability resolution for every entity kind.
// Permissions are attached to content nodes and domains; access to every
// other entity maps onto one of those two, per the dispatch below.
// Superusers bypass all checks.

type access int

const (
	readAccess access = iota
	writeAccess
	publishAccess
	adminAccess
)

func (a access) String() string {
	switch a {
	case readAccess:
		return "read"
	case writeAccess:
		return "write"
	case publishAccess:
		return "publish"
	case adminAccess:
		return "admin"
	}
	return "unknown"
}

// hasAccess answers the (user, entity, access) question.
func (m *Manager) hasAccess(user *User, r record, a access) (bool, error) {
	if user != nil && user.IsSuperuser() {
		return true, nil
	}
	switch v := r.(type) {
	case *Domain:
		return m.hasContentAccess(user, v.name, 0, a)
	case *Content:
		return m.hasContentAccess(user, v.domain, v.id, a)
	case *Host:
		return m.hasContentAccess(user, v.domain, 0, a)
	case *Lock:
		return m.hasContentAccess(user, v.domain, v.content, a)
	case *PermissionList:
		// reading a list requires read on its owner, changing it admin
		if a == readAccess {
			return m.hasContentAccess(user, v.domain, v.content, readAccess)
		}
		return m.hasContentAccess(user, v.domain, v.content, adminAccess)
	case *User:
		if a == readAccess {
			return true, nil
		}
		return m.hasUserWriteAccess(user, v)
	case *Group:
		if a == readAccess {
			return true, nil
		}
		return m.hasContentAccess(user, v.domain, 0, adminAccess)
	}
	return false, nil
}

// hasContentAccess evaluates the effective permission list of a content
// node (or the domain, for id zero) against the user. The list is inherited
// down the tree: the first ancestor with a non-empty list decides, ending
// at the domain.
func (m *Manager) hasContentAccess(user *User, domain string, id int, a access) (bool, error) {

	list, err := m.effectivePermissions(domain, id)
	if err != nil {
		return false, err
	}

	var groups []string
	if user != nil {
		groups, err = user.Groups()
		if err != nil {
			return false, err
		}
	}

	for _, p := range list.permissions {
		if p.matches(user, groups) && p.grants(a) {
			return true, nil
		}
	}
	return false, nil
}

// hasUserWriteAccess allows a user to modify itself, and domain admins to
// modify the users of their domain.
func (m *Manager) hasUserWriteAccess(user *User, target *User) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.domain == target.domain && user.name == target.name {
		return true, nil
	}
	if target.IsSuperuser() {
		return false, nil // only superusers modify superusers
	}
	return m.hasContentAccess(user, target.domain, 0, adminAccess)
}

// effectivePermissions walks from a content node up the parent chain and
// returns the first non-empty permission list, ending with the domain list.
// Each owner's own list is cached.
func (m *Manager) effectivePermissions(domain string, id int) (*PermissionList, error) {
	for {
		list, err := m.ownPermissions(domain, id)
		if err != nil {
			return nil, err
		}
		if !list.IsEmpty() || id == 0 {
			return list, nil
		}
		row, err := m.store.Content.Get(id, true)
		if err != nil {
			return nil, errors.Wrap(err, "resolving permission inheritance")
		}
		if row == nil {
			id = 0
			continue
		}
		id = row.Parent
	}
}

// ownPermissions returns the list attached directly to one owner, loading
// and caching it if needed. The list may be empty.
func (m *Manager) ownPermissions(domain string, id int) (*PermissionList, error) {

	if list, ok := m.cache.getPermissions(domain, id); ok {
		return list, nil
	}

	rows, err := m.store.Permissions.GetByOwner(domain, id)
	if err != nil {
		return nil, errors.Wrap(err, "loading permission list")
	}

	var list = newPermissionList(m, domain, id)
	list.persistent = len(rows) > 0
	for _, row := range rows {
		list.Add(Permission{
			User:    row.User,
			Group:   row.Group,
			Read:    row.Read,
			Write:   row.Write,
			Publish: row.Publish,
			Admin:   row.Admin,
		})
	}

	m.cache.addPermissions(list)
	return list, nil
}

// checkInsert gates Save on a not-yet-persistent entity.
func (m *Manager) checkInsert(user *User, r record) error {
	if user != nil && user.IsSuperuser() {
		return nil
	}
	switch v := r.(type) {
	case *Content:
		// a draft needs write access, a numbered revision publish access
		a := writeAccess
		if v.revision > 0 {
			a = publishAccess
		}
		ok, err := m.hasContentAccess(user, v.domain, v.parent, a)
		if err != nil {
			return err
		}
		if !ok {
			return newSecurityError(user, "insert", v.describe())
		}
		return nil
	case *Domain, *Host:
		return newSecurityError(user, "insert", r.describe())
	case *PermissionList:
		return m.checkOwnerAdmin(user, v, "insert")
	case *Lock:
		return m.checkLockAccess(user, v, "insert")
	case *User:
		return m.checkUserWrite(user, v, "insert")
	case *Group:
		return m.checkGroupWrite(user, v, "insert")
	}
	return nil
}

// checkUpdate gates Save on a persistent entity.
func (m *Manager) checkUpdate(user *User, r record) error {
	if user != nil && user.IsSuperuser() {
		return nil
	}
	switch v := r.(type) {
	case *Content:
		a := writeAccess
		if v.revision > 0 {
			a = publishAccess
		}
		ok, err := m.hasContentAccess(user, v.domain, v.id, a)
		if err != nil {
			return err
		}
		if !ok {
			return newSecurityError(user, "update", v.describe())
		}
		return nil
	case *Domain, *Host:
		return newSecurityError(user, "update", r.describe())
	case *PermissionList:
		return m.checkOwnerAdmin(user, v, "update")
	case *Lock:
		return errors.Errorf("%s cannot be updated", v.describe())
	case *User:
		return m.checkUserWrite(user, v, "update")
	case *Group:
		return m.checkGroupWrite(user, v, "update")
	}
	return nil
}

// checkDelete gates Delete.
func (m *Manager) checkDelete(user *User, r record) error {
	if user != nil && user.IsSuperuser() {
		return nil
	}
	switch v := r.(type) {
	case *Content:
		ok, err := m.hasContentAccess(user, v.domain, v.id, publishAccess)
		if err != nil {
			return err
		}
		if !ok {
			return newSecurityError(user, "delete", v.describe())
		}
		return nil
	case *Domain, *Host:
		return newSecurityError(user, "delete", r.describe())
	case *PermissionList:
		return m.checkOwnerAdmin(user, v, "delete")
	case *Lock:
		return m.checkLockAccess(user, v, "delete")
	case *User:
		return m.checkUserWrite(user, v, "delete")
	case *Group:
		return m.checkGroupWrite(user, v, "delete")
	}
	return nil
}

func (m *Manager) checkOwnerAdmin(user *User, l *PermissionList, op string) error {
	ok, err := m.hasContentAccess(user, l.domain, l.content, adminAccess)
	if err != nil {
		return err
	}
	if !ok {
		return newSecurityError(user, op, l.describe())
	}
	return nil
}

func (m *Manager) checkLockAccess(user *User, l *Lock, op string) error {
	ok, err := m.hasContentAccess(user, l.domain, l.content, writeAccess)
	if err != nil {
		return err
	}
	if !ok {
		return newSecurityError(user, op, l.describe())
	}
	return nil
}

func (m *Manager) checkUserWrite(user *User, target *User, op string) error {
	ok, err := m.hasUserWriteAccess(user, target)
	if err != nil {
		return err
	}
	if !ok {
		return newSecurityError(user, op, target.describe())
	}
	return nil
}

func (m *Manager) checkGroupWrite(user *User, g *Group, op string) error {
	ok, err := m.hasContentAccess(user, g.domain, 0, adminAccess)
	if err != nil {
		return err
	}
	if !ok {
		return newSecurityError(user, op, g.describe())
	}
	return nil
}
