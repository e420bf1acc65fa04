package content

import (
	"fmt"
	"time"

	"github.com/driftwood-cms/driftwood/data"
	"github.com/pkg/errors"
)

// Lock is an advisory editing lock on one content node. It records who
// acquired it and when. Locks are created and deleted, never updated, and
// they do not gate any core operation; editorial callers check them
// themselves.
type Lock struct {
	object
	domain   string
	content  int
	user     string
	acquired time.Time
}

// NewLock creates a fresh lock on a content node for the given user.
func NewLock(m *Manager, c *Content, user *User) *Lock {
	var l = &Lock{
		domain:  c.domain,
		content: c.id,
	}
	if user != nil {
		l.user = user.name
	}
	l.object = object{m: m, self: l}
	return l
}

func lockFromRow(m *Manager, row *data.LockRow) *Lock {
	var l = &Lock{
		domain:   row.Domain,
		content:  row.Content,
		user:     row.User,
		acquired: fromUnix(row.Acquired),
	}
	l.object = object{m: m, self: l, persistent: true}
	return l
}

func (l *Lock) DomainName() string  { return l.domain }
func (l *Lock) ContentID() int      { return l.content }
func (l *Lock) UserName() string    { return l.user }
func (l *Lock) Acquired() time.Time { return l.acquired }

// IsOwner reports whether the given user holds this lock.
func (l *Lock) IsOwner(user *User) bool {
	return user != nil && user.name == l.user
}

func (l *Lock) describe() string {
	return fmt.Sprintf("lock on content %d", l.content)
}

func (l *Lock) validate() error {
	if l.content <= 0 {
		return errors.New("lock requires a content object")
	}
	return validateSize("user name", l.user, 1, 30)
}

func (l *Lock) insert(user *User, restore bool) error {
	l.acquired = time.Now()
	existing, err := l.m.store.Locks.Get(l.content)
	if err != nil {
		return errors.Wrap(err, "checking lock")
	}
	if existing != nil {
		return errors.Errorf("content %d is already locked by %s", l.content, existing.User)
	}
	return errors.Wrap(l.m.store.Locks.Insert(&data.LockRow{
		Domain:   l.domain,
		Content:  l.content,
		User:     l.user,
		Acquired: unix(l.acquired),
	}), "inserting lock")
}

func (l *Lock) update(user *User) error {
	return errors.Errorf("%s cannot be updated", l.describe())
}

func (l *Lock) remove(user *User) error {
	return errors.Wrap(l.m.store.Locks.Delete(l.content), "deleting lock")
}
