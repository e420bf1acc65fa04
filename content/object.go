package content

// record is implemented by every persistent entity. The exported lifecycle
// lives on the embedded object; these are the extension points it wraps.
type record interface {
	base() *object
	describe() string
	validate() error
	insert(user *User, restore bool) error
	update(user *User) error
	remove(user *User) error
}

// object is the base of every persistent entity. It carries the manager, a
// self pointer to the concrete record and the persistence flag. The
// lifecycle methods guarantee cache eviction even when the wrapped step
// fails, so a stale entry never outlives a failed write.
type object struct {
	m          *Manager
	self       record
	persistent bool
}

func (o *object) base() *object {
	return o
}

func (o *object) IsPersistent() bool {
	return o.persistent
}

// Save inserts the entity if it is not yet persistent, else updates it.
// Both paths check permissions and validate first.
func (o *object) Save(user *User) error {
	defer o.m.cache.evict(o.self)
	if o.persistent {
		if err := o.m.checkUpdate(user, o.self); err != nil {
			return o.m.logDenied(err)
		}
		if err := o.self.validate(); err != nil {
			return o.m.logError(err)
		}
		if err := o.self.update(user); err != nil {
			return o.m.logError(err)
		}
		return nil
	}
	if err := o.m.checkInsert(user, o.self); err != nil {
		return o.m.logDenied(err)
	}
	if err := o.self.validate(); err != nil {
		return o.m.logError(err)
	}
	if err := o.self.insert(user, false); err != nil {
		return o.m.logError(err)
	}
	o.persistent = true
	return nil
}

// Restore inserts the entity on behalf of backup tooling, bypassing the
// uniqueness checks of validate. Superusers only. Content restores
// additionally verify that the parent chain is acyclic.
func (o *object) Restore(user *User) error {
	defer o.m.cache.evict(o.self)
	if user == nil || !user.IsSuperuser() {
		return o.m.logDenied(newSecurityError(user, "restore", o.self.describe()))
	}
	if o.persistent {
		return o.m.logError(errAlreadyPersistent(o.self))
	}
	if c, ok := o.self.(*Content); ok {
		if err := o.m.checkParentChain(c.domain, c.parent); err != nil {
			return o.m.logError(err)
		}
	}
	if err := o.self.insert(user, true); err != nil {
		return o.m.logError(err)
	}
	o.persistent = true
	return nil
}

// Delete removes the entity from storage. It is a no-op on non-persistent
// entities.
func (o *object) Delete(user *User) error {
	if !o.persistent {
		return nil
	}
	defer o.m.cache.evict(o.self)
	if err := o.m.checkDelete(user, o.self); err != nil {
		return o.m.logDenied(err)
	}
	if err := o.self.remove(user); err != nil {
		return o.m.logError(err)
	}
	o.persistent = false
	return nil
}

func (o *object) HasReadAccess(user *User) (bool, error) {
	return o.m.hasAccess(user, o.self, readAccess)
}

func (o *object) HasWriteAccess(user *User) (bool, error) {
	return o.m.hasAccess(user, o.self, writeAccess)
}

func (o *object) HasPublishAccess(user *User) (bool, error) {
	return o.m.hasAccess(user, o.self, publishAccess)
}

func (o *object) HasAdminAccess(user *User) (bool, error) {
	return o.m.hasAccess(user, o.self, adminAccess)
}
