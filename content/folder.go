package content

import (
	"github.com/pkg/errors"
)

func init() {
	registerCategory(CategoryFolder, &categoryDef{
		name: "folder",
		validate: func(c *Content) error {
			if c.parent <= 0 {
				return errors.New("folder requires a parent")
			}
			return c.validateSiblingName(CategoryAny)
		},
	})
}

// Folder is a plain grouping node below a site or another folder.
type Folder struct {
	*Content
}

func NewFolder(m *Manager, parent *Content) (*Folder, error) {
	c, err := newChildContent(m, parent, CategoryFolder)
	if err != nil {
		return nil, err
	}
	return &Folder{c}, nil
}

func (c *Content) AsFolder() *Folder {
	if c == nil || c.category != CategoryFolder {
		return nil
	}
	return &Folder{c}
}
