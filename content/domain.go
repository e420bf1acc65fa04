package content

import (
	"strings"
	"time"

	"github.com/driftwood-cms/driftwood/data"
	"github.com/pkg/errors"
)

// RootDomainName is the built-in domain requests fall back to when no host
// matches.
const RootDomainName = "ROOT"

const (
	domainAttrMailFrom   = "MAIL.FROM"
	domainAttrHostPrefix = "HOST."
)

// Domain is a tenant boundary. It owns sites, content, users, groups and a
// file directory, all keyed by the domain name.
type Domain struct {
	object
	name        string
	description string
	created     time.Time
	modified    time.Time
	attrs       map[string]string
}

// NewDomain creates a fresh, non-persistent domain. Names are uppercase.
func NewDomain(m *Manager, name string) *Domain {
	var d = &Domain{
		name:    strings.ToUpper(name),
		created: time.Now(),
		attrs:   map[string]string{},
	}
	d.object = object{m: m, self: d}
	return d
}

func domainFromRow(m *Manager, row *data.DomainRow) (*Domain, error) {
	attrs, err := m.store.Attributes.GetDomain(row.Name)
	if err != nil {
		return nil, errors.Wrap(err, "loading domain attributes")
	}
	var d = &Domain{
		name:        row.Name,
		description: row.Description,
		created:     fromUnix(row.Created),
		modified:    fromUnix(row.Modified),
		attrs:       attrs,
	}
	d.object = object{m: m, self: d, persistent: true}
	return d, nil
}

func (d *Domain) Name() string               { return d.name }
func (d *Domain) Description() string        { return d.description }
func (d *Domain) Created() time.Time         { return d.created }
func (d *Domain) Modified() time.Time        { return d.modified }
func (d *Domain) SetDescription(desc string) { d.description = desc }

func (d *Domain) Attribute(name string) string {
	return d.attrs[name]
}

func (d *Domain) SetAttribute(name, value string) {
	if value == "" {
		delete(d.attrs, name)
	} else {
		d.attrs[name] = value
	}
}

// MailFrom is the sender address for mail generated on behalf of the
// domain.
func (d *Domain) MailFrom() string {
	return d.attrs[domainAttrMailFrom]
}

func (d *Domain) SetMailFrom(from string) {
	d.SetAttribute(domainAttrMailFrom, from)
}

// HostDescriptions returns the host names registered to the domain, mapped
// to their descriptions.
func (d *Domain) HostDescriptions() map[string]string {
	var hosts = map[string]string{}
	for key, value := range d.attrs {
		if strings.HasPrefix(key, domainAttrHostPrefix) {
			hosts[strings.ToLower(strings.TrimPrefix(key, domainAttrHostPrefix))] = value
		}
	}
	return hosts
}

func (d *Domain) SetHostDescription(host, description string) {
	d.SetAttribute(domainAttrHostPrefix+strings.ToUpper(host), description)
}

// FileSize returns the total byte size of the domain's file directory.
func (d *Domain) FileSize() (int64, error) {
	size, err := d.m.files.Size(d.name)
	return size, errors.Wrap(err, "measuring domain files")
}

// IsRoot reports whether this is the built-in fallback domain.
func (d *Domain) IsRoot() bool {
	return d.name == RootDomainName
}

func (d *Domain) describe() string {
	return "domain " + d.name
}

func (d *Domain) validate() error {
	if err := validateSize("domain name", d.name, 1, 255); err != nil {
		return err
	}
	if err := validateChars("domain name", d.name, domainChars); err != nil {
		return err
	}
	// registered host attributes must point at existing hosts of this domain
	for host := range d.HostDescriptions() {
		row, err := d.m.store.Hosts.Get(host)
		if err != nil {
			return errors.Wrap(err, "checking domain host")
		}
		if row == nil {
			return errors.Errorf("host %s is not registered", host)
		}
		if row.Domain != d.name {
			return errors.Errorf("host %s belongs to another domain", host)
		}
	}
	return nil
}

func (d *Domain) row() *data.DomainRow {
	return &data.DomainRow{
		Name:        d.name,
		Description: d.description,
		Created:     unix(d.created),
		Modified:    unix(d.modified),
	}
}

func (d *Domain) insert(user *User, restore bool) error {
	if !restore {
		existing, err := d.m.store.Domains.Get(d.name)
		if err != nil {
			return errors.Wrap(err, "checking domain name")
		}
		if existing != nil {
			return errors.Errorf("domain %s already exists", d.name)
		}
	}
	d.modified = time.Now()
	if err := d.m.store.Domains.Insert(d.row()); err != nil {
		return errors.Wrap(err, "inserting domain")
	}
	return errors.Wrap(d.m.store.Attributes.SetDomain(d.name, d.attrs), "storing domain attributes")
}

func (d *Domain) update(user *User) error {
	d.modified = time.Now()
	if err := d.m.store.Domains.Update(d.row()); err != nil {
		return errors.Wrap(err, "updating domain")
	}
	return errors.Wrap(d.m.store.Attributes.SetDomain(d.name, d.attrs), "storing domain attributes")
}

// remove deletes all data of the domain: content, attributes, permissions,
// locks, hosts, users, groups, the file directory and finally the domain
// row.
func (d *Domain) remove(user *User) error {
	if err := d.m.store.Users.DeleteDomain(d.name); err != nil {
		return errors.Wrap(err, "deleting domain users")
	}
	if err := d.m.store.Groups.DeleteDomain(d.name); err != nil {
		return errors.Wrap(err, "deleting domain groups")
	}
	if err := d.m.store.DeleteDomainData(d.name); err != nil {
		return errors.Wrap(err, "deleting domain data")
	}
	return errors.Wrap(d.m.files.RemoveDomain(d.name), "deleting domain files")
}
