package content

import (
	"github.com/driftwood-cms/driftwood/data"
	"github.com/pkg/errors"
)

// Group is a named set of users within a domain, referenced by permission
// rules.
type Group struct {
	object
	domain      string
	name        string
	description string
	comment     string

	usersAdded   []string
	usersRemoved []string
}

func NewGroup(m *Manager, domain *Domain, name string) *Group {
	var g = &Group{
		domain: domain.name,
		name:   name,
	}
	g.object = object{m: m, self: g}
	return g
}

func groupFromRow(m *Manager, row *data.GroupRow) *Group {
	var g = &Group{
		domain:      row.Domain,
		name:        row.Name,
		description: row.Description,
		comment:     row.Comment,
	}
	g.object = object{m: m, self: g, persistent: true}
	return g
}

func (g *Group) DomainName() string         { return g.domain }
func (g *Group) Name() string               { return g.name }
func (g *Group) Description() string        { return g.description }
func (g *Group) Comment() string            { return g.comment }
func (g *Group) SetDescription(desc string) { g.description = desc }
func (g *Group) SetComment(comment string)  { g.comment = comment }

// AddUser marks a membership to be added on the next save.
func (g *Group) AddUser(u *User) {
	g.usersAdded = append(g.usersAdded, u.name)
}

// RemoveUser marks a membership to be removed on the next save.
func (g *Group) RemoveUser(u *User) {
	g.usersRemoved = append(g.usersRemoved, u.name)
}

// Members returns one page of the group's user names, sorted.
func (g *Group) Members(limit, offset int) ([]string, error) {
	members, err := g.m.store.Groups.Members(g.domain, g.name, limit, offset)
	return members, errors.Wrap(err, "loading group members")
}

func (g *Group) MemberCount() (int, error) {
	count, err := g.m.store.Groups.CountMembers(g.domain, g.name)
	return count, errors.Wrap(err, "counting group members")
}

func (g *Group) describe() string {
	return "group " + g.name
}

func (g *Group) validate() error {
	if err := validateSize("domain", g.domain, 1, 255); err != nil {
		return err
	}
	if err := validateSize("group name", g.name, 1, 30); err != nil {
		return err
	}
	return validateChars("group name", g.name, nameChars)
}

func (g *Group) row() *data.GroupRow {
	return &data.GroupRow{
		Domain:      g.domain,
		Name:        g.name,
		Description: g.description,
		Comment:     g.comment,
	}
}

func (g *Group) insert(user *User, restore bool) error {
	if !restore {
		existing, err := g.m.store.Groups.Get(g.domain, g.name)
		if err != nil {
			return errors.Wrap(err, "checking group name")
		}
		if existing != nil {
			return errors.Errorf("group %s already exists", g.name)
		}
	}
	if err := g.m.store.Groups.Insert(g.row()); err != nil {
		return errors.Wrap(err, "inserting group")
	}
	return g.applyMemberDiff()
}

func (g *Group) update(user *User) error {
	if err := g.m.store.Groups.Update(g.row()); err != nil {
		return errors.Wrap(err, "updating group")
	}
	return g.applyMemberDiff()
}

func (g *Group) applyMemberDiff() error {
	for _, u := range g.usersAdded {
		if err := g.m.store.Groups.AddMember(g.domain, u, g.name); err != nil {
			return errors.Wrap(err, "adding group member")
		}
	}
	for _, u := range g.usersRemoved {
		if err := g.m.store.Groups.RemoveMember(g.domain, u, g.name); err != nil {
			return errors.Wrap(err, "removing group member")
		}
	}
	g.usersAdded = nil
	g.usersRemoved = nil
	return nil
}

func (g *Group) remove(user *User) error {
	return errors.Wrap(g.m.store.Groups.Delete(g.domain, g.name), "deleting group")
}
