package content

import (
	"strings"

	"github.com/driftwood-cms/driftwood/data"
	"github.com/pkg/errors"
)

// Host maps a DNS host name to a domain, with a free-form options map.
// Hosts are top-level entities so hostname routing never needs to load a
// domain first.
type Host struct {
	object
	name        string
	domain      string
	description string
	options     map[string]string
}

func NewHost(m *Manager, domain *Domain, name string) *Host {
	var h = &Host{
		name:    strings.ToLower(name),
		domain:  domain.name,
		options: map[string]string{},
	}
	h.object = object{m: m, self: h}
	return h
}

func hostFromRow(m *Manager, row *data.HostRow) *Host {
	var h = &Host{
		name:        row.Name,
		domain:      row.Domain,
		description: row.Description,
		options:     decodeMap(row.Options),
	}
	h.object = object{m: m, self: h, persistent: true}
	return h
}

func (h *Host) Name() string               { return h.name }
func (h *Host) DomainName() string         { return h.domain }
func (h *Host) Description() string        { return h.description }
func (h *Host) SetDescription(desc string) { h.description = desc }

func (h *Host) Option(name string) string {
	return h.options[name]
}

func (h *Host) SetOption(name, value string) {
	if value == "" {
		delete(h.options, name)
	} else {
		h.options[name] = value
	}
}

func (h *Host) describe() string {
	return "host " + h.name
}

func (h *Host) validate() error {
	if err := validateSize("host name", h.name, 1, 255); err != nil {
		return err
	}
	if err := validateChars("host name", h.name, nameChars); err != nil {
		return err
	}
	return validateSize("domain", h.domain, 1, 255)
}

func (h *Host) row() *data.HostRow {
	return &data.HostRow{
		Name:        h.name,
		Domain:      h.domain,
		Description: h.description,
		Options:     encodeMap(h.options),
	}
}

func (h *Host) insert(user *User, restore bool) error {
	if !restore {
		existing, err := h.m.store.Hosts.Get(h.name)
		if err != nil {
			return errors.Wrap(err, "checking host name")
		}
		if existing != nil {
			return errors.Errorf("host %s already exists", h.name)
		}
	}
	return errors.Wrap(h.m.store.Hosts.Insert(h.row()), "inserting host")
}

func (h *Host) update(user *User) error {
	return errors.Wrap(h.m.store.Hosts.Update(h.row()), "updating host")
}

func (h *Host) remove(user *User) error {
	return errors.Wrap(h.m.store.Hosts.Delete(h.name), "deleting host")
}
