package content

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

const fileAttrName = "FILENAME"

func init() {
	registerCategory(CategoryFile, &categoryDef{
		name: "file",
		validate: func(c *Content) error {
			if c.parent <= 0 {
				return errors.New("file requires a parent")
			}
			if c.attrs[fileAttrName] == "" {
				return errors.New("file has no stored data")
			}
			return c.validateSiblingName(CategoryAny)
		},
		afterWrite: fileCollectOrphans,
		onDelete: func(c *Content) error {
			return errors.Wrap(c.m.files.RemoveContent(c.domain, c.id), "removing file directory")
		},
	})
}

// File is a content node backed by an on-disk blob. The blob lives in the
// node's file directory under the name stored in the FILENAME attribute;
// each revision may reference a different blob.
type File struct {
	*Content
}

func NewFile(m *Manager, parent *Content) (*File, error) {
	c, err := newChildContent(m, parent, CategoryFile)
	if err != nil {
		return nil, err
	}
	return &File{c}, nil
}

func (c *Content) AsFile() *File {
	if c == nil || c.category != CategoryFile {
		return nil
	}
	return &File{c}
}

// FileName returns the blob name of this revision.
func (f *File) FileName() string {
	return f.Attribute(fileAttrName)
}

// SetFileName sets the blob name before the first save. Upload adjusts it
// again if the name collides on disk.
func (f *File) SetFileName(name string) {
	f.SetAttribute(fileAttrName, name)
}

// Path returns the on-disk location of this revision's blob.
func (f *File) Path() string {
	return f.m.files.Path(f.domain, f.id, f.FileName())
}

func (f *File) Open() (*os.File, error) {
	file, err := f.m.files.Open(f.domain, f.id, f.FileName())
	return file, errors.Wrap(err, "opening file data")
}

// Upload stores a new blob for this revision. If the name collides with a
// blob of another revision, it is stored under a counter-prefixed variant.
// The node must be saved afterwards to persist the reference.
func (f *File) Upload(name string, src io.Reader) error {
	if f.id == 0 {
		return errors.New("file must be saved before uploading data")
	}
	unique, err := f.m.files.UniqueName(f.domain, f.id, name)
	if err != nil {
		return errors.Wrap(err, "storing file data")
	}
	if err := f.m.files.Write(f.domain, f.id, unique, src); err != nil {
		return errors.Wrap(err, "storing file data")
	}
	f.SetAttribute(fileAttrName, unique)
	return nil
}

// fileCollectOrphans removes blobs no surviving revision references. Runs
// after updates and revision deletions.
func fileCollectOrphans(c *Content) error {
	keep, err := c.m.store.Attributes.ValuesAcrossRevisions(c.id, fileAttrName)
	if err != nil {
		return errors.Wrap(err, "listing file references")
	}
	return errors.Wrap(c.m.files.RemoveOrphans(c.domain, c.id, keep), "removing orphaned files")
}
