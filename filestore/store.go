// Package filestore keeps content file blobs on disk, one directory per
// content id, grouped by domain. The layout <base>/<domain>/<id>/<name> is a
// persisted format shared with existing installations and must not change.
package filestore

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
)

type Store struct {
	BaseDir string
}

func NewStore(baseDir string) *Store {
	return &Store{BaseDir: baseDir}
}

func (s *Store) DomainDir(domain string) string {
	return filepath.Join(s.BaseDir, domain)
}

func (s *Store) ContentDir(domain string, id int) string {
	return filepath.Join(s.BaseDir, domain, strconv.Itoa(id))
}

// Path returns the on-disk location of one file. The file need not exist.
func (s *Store) Path(domain string, id int, name string) string {
	return filepath.Join(s.ContentDir(domain, id), name)
}

// UniqueName returns name, or a counter-prefixed variant like "1.name" if a
// file with that name already exists in the content directory.
func (s *Store) UniqueName(domain string, id int, name string) (string, error) {
	dir := s.ContentDir(domain, id)
	candidate := name
	for i := 1; ; i++ {
		_, err := os.Stat(filepath.Join(dir, candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%d.%s", i, name)
	}
}

// Write stores a file blob, creating the content directory if needed.
func (s *Store) Write(domain string, id int, name string, src io.Reader) error {
	dir := s.ContentDir(domain, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *Store) Open(domain string, id int, name string) (*os.File, error) {
	return os.Open(s.Path(domain, id, name))
}

// Remove deletes one file. A missing file is not an error.
func (s *Store) Remove(domain string, id int, name string) error {
	err := os.Remove(s.Path(domain, id, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemoveOrphans deletes every file in the content directory whose name is
// not in keep. Called after updates and revision deletions, with keep being
// the file names still referenced by surviving revisions.
func (s *Store) RemoveOrphans(domain string, id int, keep []string) error {

	files, err := ioutil.ReadDir(s.ContentDir(domain, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	for _, file := range files {
		if !kept[file.Name()] {
			if err := os.Remove(s.Path(domain, id, file.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

// RemoveContent deletes the whole directory of a content id.
func (s *Store) RemoveContent(domain string, id int) error {
	return os.RemoveAll(s.ContentDir(domain, id))
}

// RemoveDomain deletes the whole directory of a domain.
func (s *Store) RemoveDomain(domain string) error {
	return os.RemoveAll(s.DomainDir(domain))
}

// Size returns the total byte size of all files under a domain.
func (s *Store) Size(domain string) (int64, error) {
	var size int64
	err := filepath.Walk(s.DomainDir(domain), func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return size, err
}
