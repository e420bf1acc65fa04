package content

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	siteAttrProtocol  = "PROTOCOL"
	siteAttrHost      = "HOST"
	siteAttrPort      = "PORT"
	siteAttrDirectory = "DIRECTORY"
	siteAttrFlags     = "FLAGS"

	siteFlagAdmin = 1
)

func init() {
	registerCategory(CategorySite, &categoryDef{
		name: "site",
		defaults: func(c *Content) {
			c.attrs[siteAttrProtocol] = "http"
			c.attrs[siteAttrHost] = "*"
			c.attrs[siteAttrPort] = "0"
			c.attrs[siteAttrDirectory] = "/"
			c.attrs[siteAttrFlags] = "0"
		},
		validate: validateSite,
	})
}

// Site is a content node matching inbound requests by protocol, host, port
// and directory. Sites live at the domain root.
type Site struct {
	*Content
}

// NewSite creates a fresh site at the domain root.
func NewSite(m *Manager, domain *Domain) (*Site, error) {
	c, err := NewContent(m, domain, CategorySite)
	if err != nil {
		return nil, err
	}
	return &Site{c}, nil
}

// AsSite wraps a content node as a site, or returns nil for other
// categories.
func (c *Content) AsSite() *Site {
	if c == nil || c.category != CategorySite {
		return nil
	}
	return &Site{c}
}

func (s *Site) Protocol() string {
	return s.Attribute(siteAttrProtocol)
}

func (s *Site) SetProtocol(protocol string) {
	s.SetAttribute(siteAttrProtocol, protocol)
}

func (s *Site) Host() string {
	return s.Attribute(siteAttrHost)
}

func (s *Site) SetHost(host string) {
	s.SetAttribute(siteAttrHost, strings.ToLower(host))
}

func (s *Site) Port() int {
	port, _ := strconv.Atoi(s.Attribute(siteAttrPort))
	return port
}

func (s *Site) SetPort(port int) {
	s.SetAttribute(siteAttrPort, strconv.Itoa(port))
}

func (s *Site) Directory() string {
	return s.Attribute(siteAttrDirectory)
}

func (s *Site) SetDirectory(directory string) {
	if !strings.HasPrefix(directory, "/") {
		directory = "/" + directory
	}
	if !strings.HasSuffix(directory, "/") {
		directory = directory + "/"
	}
	s.SetAttribute(siteAttrDirectory, directory)
}

// IsAdminSite reports whether the site serves the administration UI.
func (s *Site) IsAdminSite() bool {
	flags, _ := strconv.Atoi(s.Attribute(siteAttrFlags))
	return flags&siteFlagAdmin != 0
}

func (s *Site) SetAdminSite(admin bool) {
	flags, _ := strconv.Atoi(s.Attribute(siteAttrFlags))
	if admin {
		flags |= siteFlagAdmin
	} else {
		flags &^= siteFlagAdmin
	}
	s.SetAttribute(siteAttrFlags, strconv.Itoa(flags))
}

// matchScore rates how well the site matches a request. Zero means no
// match. An exact host is worth 10000, an exact port 1000 and a directory
// prefix its length, so more specific sites always win over wildcards.
func (s *Site) matchScore(protocol, host string, port int, path string) int {

	if s.Protocol() != protocol {
		return 0
	}

	var score = 0

	switch s.Host() {
	case strings.ToLower(host):
		score += 10000
	case "*":
	default:
		return 0
	}

	switch s.Port() {
	case port:
		score += 1000
	case 0:
	default:
		return 0
	}

	dir := s.Directory()
	if !strings.HasPrefix(path, dir) {
		return 0
	}
	return score + len(dir)
}

func validateSite(c *Content) error {

	s := &Site{c}

	switch s.Protocol() {
	case "http", "https":
	default:
		return errors.Errorf("invalid site protocol %q", s.Protocol())
	}
	if s.Port() < 0 || s.Port() > 65535 {
		return errors.New("invalid site port")
	}
	if s.Directory() == "" {
		return errors.New("site directory is required")
	}

	// no two sites of the domain may claim the same coordinates
	siblings, err := c.m.siteRows(c.domain, true)
	if err != nil {
		return err
	}
	for _, other := range siblings {
		if other.id == c.id {
			continue
		}
		if other.Protocol() == s.Protocol() && other.Host() == s.Host() &&
			other.Port() == s.Port() && other.Directory() == s.Directory() {
			return errors.Errorf("site %d already matches the same address", other.id)
		}
	}

	return c.validateSiblingName(CategoryAny)
}
