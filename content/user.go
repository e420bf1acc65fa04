package content

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"strings"

	"github.com/driftwood-cms/driftwood/data"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// passwordChars leaves out characters that are easy to confuse, like l, 1,
// O and 0.
const passwordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRTUVWXYZ2346789#%=+"

// User is an account. A user with an empty domain name is a superuser,
// visible to all domains and exempt from permission checks.
type User struct {
	object
	domain   string
	name     string
	password string
	enabled  bool
	realName string
	email    string
	comment  string

	groups        []string // resolved memberships, nil until first use
	groupsAdded   []string
	groupsRemoved []string
}

// NewUser creates a fresh user. A nil domain creates a superuser.
func NewUser(m *Manager, domain *Domain, name string) *User {
	var u = &User{
		name:    name,
		enabled: true,
	}
	if domain != nil {
		u.domain = domain.name
	}
	u.object = object{m: m, self: u}
	return u
}

func userFromRow(m *Manager, row *data.UserRow) *User {
	var u = &User{
		domain:   row.Domain,
		name:     row.Name,
		password: row.Password,
		enabled:  row.Enabled,
		realName: row.RealName,
		email:    row.Email,
		comment:  row.Comment,
	}
	u.object = object{m: m, self: u, persistent: true}
	return u
}

func (u *User) DomainName() string { return u.domain }
func (u *User) Name() string       { return u.name }
func (u *User) IsEnabled() bool    { return u.enabled }
func (u *User) RealName() string   { return u.realName }
func (u *User) Email() string      { return u.email }
func (u *User) Comment() string    { return u.comment }

func (u *User) SetEnabled(enabled bool)   { u.enabled = enabled }
func (u *User) SetRealName(name string)   { u.realName = name }
func (u *User) SetEmail(email string)     { u.email = email }
func (u *User) SetComment(comment string) { u.comment = comment }

// IsSuperuser reports whether the user belongs to no domain and therefore
// bypasses all permission checks.
func (u *User) IsSuperuser() bool {
	return u.domain == ""
}

// SetPassword replaces the stored hash.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	u.password = string(hash)
	return nil
}

// VerifyPassword checks a cleartext password against the stored hash. A
// disabled account never verifies; an account without a hash always does.
// Hashes written by older installations use LegacyPasswordHash and keep
// verifying until the password is next changed.
func (u *User) VerifyPassword(password string) bool {
	if !u.enabled {
		return false
	}
	if u.password == "" {
		return true
	}
	if strings.HasPrefix(u.password, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(u.password), []byte(password)) == nil
	}
	return u.password == LegacyPasswordHash(u.name, password)
}

// LegacyPasswordHash is the deterministic hash of older installations:
// base64 of MD5 over name and password. Kept for verifying existing
// accounts, never used for new hashes.
func LegacyPasswordHash(name, password string) string {
	sum := md5.Sum([]byte(name + password))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// GeneratePassword returns a random 8-character password starting with a
// letter, drawn from an unambiguous character set.
func GeneratePassword() (string, error) {
	letters := strings.IndexByte(passwordChars, '2')
	var chars = make([]byte, 8)
	for i := range chars {
		max := len(passwordChars)
		if i == 0 {
			max = letters
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
		if err != nil {
			return "", errors.Wrap(err, "generating password")
		}
		chars[i] = passwordChars[n.Int64()]
	}
	return string(chars), nil
}

// Groups returns the user's group names, loading and caching them on first
// use. The cached list is refreshed on the next save.
func (u *User) Groups() ([]string, error) {
	if u.groups == nil {
		groups, err := u.m.store.Groups.UserGroups(u.domain, u.name)
		if err != nil {
			return nil, errors.Wrap(err, "loading user groups")
		}
		u.groups = groups
	}
	return u.groups, nil
}

// AddToGroup marks a membership to be added on the next save.
func (u *User) AddToGroup(g *Group) {
	u.groupsAdded = append(u.groupsAdded, g.name)
}

// RemoveFromGroup marks a membership to be removed on the next save.
func (u *User) RemoveFromGroup(g *Group) {
	u.groupsRemoved = append(u.groupsRemoved, g.name)
}

func (u *User) describe() string {
	return "user " + u.name
}

func (u *User) validate() error {
	if err := validateSize("user name", u.name, 1, 30); err != nil {
		return err
	}
	return validateChars("user name", u.name, nameChars)
}

func (u *User) row() *data.UserRow {
	return &data.UserRow{
		Domain:   u.domain,
		Name:     u.name,
		Password: u.password,
		Enabled:  u.enabled,
		RealName: u.realName,
		Email:    u.email,
		Comment:  u.comment,
	}
}

func (u *User) insert(user *User, restore bool) error {
	if !restore {
		existing, err := u.m.store.Users.Get(u.domain, u.name)
		if err != nil {
			return errors.Wrap(err, "checking user name")
		}
		if existing != nil {
			return errors.Errorf("user %s already exists", u.name)
		}
	}
	if err := u.m.store.Users.Insert(u.row()); err != nil {
		return errors.Wrap(err, "inserting user")
	}
	return u.applyGroupDiff()
}

func (u *User) update(user *User) error {
	if err := u.m.store.Users.Update(u.row()); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return u.applyGroupDiff()
}

func (u *User) applyGroupDiff() error {
	for _, g := range u.groupsAdded {
		if err := u.m.store.Groups.AddMember(u.domain, u.name, g); err != nil {
			return errors.Wrap(err, "adding group membership")
		}
	}
	for _, g := range u.groupsRemoved {
		if err := u.m.store.Groups.RemoveMember(u.domain, u.name, g); err != nil {
			return errors.Wrap(err, "removing group membership")
		}
	}
	u.groupsAdded = nil
	u.groupsRemoved = nil
	u.groups = nil
	return nil
}

func (u *User) remove(user *User) error {
	if err := u.m.store.Groups.RemoveUser(u.domain, u.name); err != nil {
		return errors.Wrap(err, "removing group memberships")
	}
	return errors.Wrap(u.m.store.Users.Delete(u.domain, u.name), "deleting user")
}
