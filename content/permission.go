package content

import (
	"fmt"

	"github.com/driftwood-cms/driftwood/data"
	"github.com/pkg/errors"
)

// Permission is one access rule. An empty user and group name makes the
// rule a wildcard matching everyone, anonymous readers included.
type Permission struct {
	User    string
	Group   string
	Read    bool
	Write   bool
	Publish bool
	Admin   bool
}

// matches reports whether the rule applies to the given user, whose group
// names have already been resolved. Anonymous users match only wildcards.
func (p Permission) matches(user *User, groups []string) bool {
	if p.User == "" && p.Group == "" {
		return true
	}
	if user == nil {
		return false
	}
	if p.User != "" && p.User == user.name {
		return true
	}
	if p.Group != "" {
		for _, g := range groups {
			if g == p.Group {
				return true
			}
		}
	}
	return false
}

func (p Permission) grants(a access) bool {
	switch a {
	case readAccess:
		return p.Read
	case writeAccess:
		return p.Write
	case publishAccess:
		return p.Publish
	case adminAccess:
		return p.Admin
	}
	return false
}

// PermissionList is the set of rules attached to one owner: a content node,
// or the domain itself when the content id is zero. Saving replaces the
// stored rules wholesale.
type PermissionList struct {
	object
	domain      string
	content     int
	permissions []Permission
}

func newPermissionList(m *Manager, domain string, content int) *PermissionList {
	var l = &PermissionList{
		domain:  domain,
		content: content,
	}
	l.object = object{m: m, self: l}
	return l
}

func (l *PermissionList) Domain() string {
	return l.domain
}

// ContentID returns the owning content id, zero for a domain list.
func (l *PermissionList) ContentID() int {
	return l.content
}

func (l *PermissionList) Permissions() []Permission {
	return l.permissions
}

func (l *PermissionList) IsEmpty() bool {
	return len(l.permissions) == 0
}

func (l *PermissionList) Add(p Permission) {
	l.permissions = append(l.permissions, p)
}

func (l *PermissionList) Clear() {
	l.permissions = nil
}

func (l *PermissionList) base() *object {
	return &l.object
}

func (l *PermissionList) describe() string {
	if l.content == 0 {
		return fmt.Sprintf("permission list of domain %s", l.domain)
	}
	return fmt.Sprintf("permission list of content %d", l.content)
}

func (l *PermissionList) validate() error {
	if l.domain == "" {
		return errors.New("permission list requires a domain")
	}
	for _, p := range l.permissions {
		if p.User != "" && p.Group != "" {
			return errors.New("a permission cannot name both a user and a group")
		}
	}
	return nil
}

func (l *PermissionList) rows() []*data.PermissionRow {
	var rows = make([]*data.PermissionRow, 0, len(l.permissions))
	for _, p := range l.permissions {
		rows = append(rows, &data.PermissionRow{
			Domain:  l.domain,
			Content: l.content,
			User:    p.User,
			Group:   p.Group,
			Read:    p.Read,
			Write:   p.Write,
			Publish: p.Publish,
			Admin:   p.Admin,
		})
	}
	return rows
}

func (l *PermissionList) insert(user *User, restore bool) error {
	return errors.Wrap(l.m.store.Permissions.SetByOwner(l.domain, l.content, l.rows()), "storing permission list")
}

func (l *PermissionList) update(user *User) error {
	return errors.Wrap(l.m.store.Permissions.SetByOwner(l.domain, l.content, l.rows()), "storing permission list")
}

func (l *PermissionList) remove(user *User) error {
	return errors.Wrap(l.m.store.Permissions.DeleteByOwner(l.domain, l.content), "deleting permission list")
}
