package data

import (
	"database/sql"
)

// ContentRow is one (id, revision) row of the content table. Dates are unix
// seconds, zero meaning unset.
type ContentRow struct {
	ID       int
	Revision int
	Domain   string
	Category int
	Name     string
	Parent   int
	Online   int64
	Offline  int64
	Modified int64
	Author   string
	Comment  string
	Status   int
}

type ContentStore struct {
	db                  *sql.DB
	selectByID          *sql.Stmt
	selectByRevision    *sql.Stmt
	selectWork          *sql.Stmt
	selectMaxAdmin      *sql.Stmt
	selectMaxPublished  *sql.Stmt
	selectByName        *sql.Stmt
	selectByNameCat     *sql.Stmt
	selectMaxID         *sql.Stmt
	insert              *sql.Stmt
	update              *sql.Stmt
	deleteRevision      *sql.Stmt
	deleteID            *sql.Stmt
	deleteDomain        *sql.Stmt
	selectRevisionSpan  *sql.Stmt
	clearStatus         *sql.Stmt
	setStatus           *sql.Stmt
	selectChildIDs      *sql.Stmt
	selectDomainRootIDs *sql.Stmt
	selectNewestChild   *sql.Stmt
}

func NewContentStore(db *sql.DB) *ContentStore {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_content (
			id       INTEGER NOT NULL,
			revision INTEGER NOT NULL,
			domain   VARCHAR(255) NOT NULL,
			category INTEGER NOT NULL,
			name     VARCHAR(200) NOT NULL,
			parent   INTEGER NOT NULL DEFAULT 0,
			online   INTEGER NOT NULL DEFAULT 0,
			offline  INTEGER NOT NULL DEFAULT 0,
			modified INTEGER NOT NULL DEFAULT 0,
			author   VARCHAR(30) NOT NULL DEFAULT '',
			comment  VARCHAR(255) NOT NULL DEFAULT '',
			status   INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (id, revision)
		)`)
	if err != nil {
		panic(err)
	}

	const cols = "id, revision, domain, category, name, parent, online, offline, modified, author, comment, status"

	return &ContentStore{
		db:                 db,
		selectByID:         mustPrepare(db, "SELECT "+cols+" FROM ls_content WHERE id = ? ORDER BY revision DESC"),
		selectByRevision:   mustPrepare(db, "SELECT "+cols+" FROM ls_content WHERE id = ? AND revision = ?"),
		selectWork:         mustPrepare(db, "SELECT "+cols+" FROM ls_content WHERE id = ? AND revision = 0"),
		selectMaxAdmin:     mustPrepare(db, "SELECT "+cols+" FROM ls_content WHERE id = ? ORDER BY revision DESC LIMIT 1"),
		selectMaxPublished: mustPrepare(db, "SELECT "+cols+" FROM ls_content WHERE id = ? AND revision > 0 ORDER BY revision DESC LIMIT 1"),
		selectByName: mustPrepare(db, "SELECT "+cols+" FROM ls_content"+
			" WHERE domain = ? AND parent = ? AND name = ? AND (status & ?) != 0 ORDER BY revision DESC LIMIT 1"),
		selectByNameCat: mustPrepare(db, "SELECT "+cols+" FROM ls_content"+
			" WHERE domain = ? AND parent = ? AND name = ? AND category = ? AND (status & ?) != 0 ORDER BY revision DESC LIMIT 1"),
		selectMaxID:         mustPrepare(db, "SELECT COALESCE(MAX(id), 0) FROM ls_content"),
		insert:              mustPrepare(db, "INSERT INTO ls_content ("+cols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)"),
		update:              mustPrepare(db, "UPDATE ls_content SET name = ?, parent = ?, online = ?, offline = ?, modified = ?, author = ?, comment = ? WHERE id = ? AND revision = ?"),
		deleteRevision:      mustPrepare(db, "DELETE FROM ls_content WHERE id = ? AND revision = ?"),
		deleteID:            mustPrepare(db, "DELETE FROM ls_content WHERE id = ?"),
		deleteDomain:        mustPrepare(db, "DELETE FROM ls_content WHERE domain = ?"),
		selectRevisionSpan:  mustPrepare(db, "SELECT COALESCE(MIN(revision), -1), COALESCE(MAX(revision), -1) FROM ls_content WHERE id = ?"),
		clearStatus:         mustPrepare(db, "UPDATE ls_content SET status = 0 WHERE id = ?"),
		setStatus:           mustPrepare(db, "UPDATE ls_content SET status = status | ? WHERE id = ? AND revision = ?"),
		selectChildIDs:      mustPrepare(db, "SELECT DISTINCT id FROM ls_content WHERE parent = ? ORDER BY id"),
		selectDomainRootIDs: mustPrepare(db, "SELECT DISTINCT id FROM ls_content WHERE domain = ? AND parent = 0 ORDER BY id"),
		selectNewestChild:   mustPrepare(db, "SELECT name FROM ls_content WHERE parent = ? AND category = ? ORDER BY id DESC LIMIT 1"),
	}
}

func scanContent(row interface{ Scan(...interface{}) error }) (*ContentRow, error) {
	var c ContentRow
	err := row.Scan(&c.ID, &c.Revision, &c.Domain, &c.Category, &c.Name, &c.Parent, &c.Online, &c.Offline, &c.Modified, &c.Author, &c.Comment, &c.Status)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetRevisions returns all revisions of an id, highest first.
func (s *ContentStore) GetRevisions(id int) ([]*ContentRow, error) {
	rows, err := s.selectByID.Query(id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []*ContentRow{}
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetRevision returns one (id, revision) row, or nil if it does not exist.
func (s *ContentStore) GetRevision(id, revision int) (*ContentRow, error) {
	c, err := scanContent(s.selectByRevision.QueryRow(id, revision))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// Get returns the revision an admin or a public reader should see. Admin
// readers get the work revision if one exists, else the highest revision.
// Public readers get the highest revision greater than zero, so a draft-only
// id is invisible to them.
func (s *ContentStore) Get(id int, admin bool) (*ContentRow, error) {
	if admin {
		c, err := scanContent(s.selectWork.QueryRow(id))
		if err == nil {
			return c, nil
		}
		if err != sql.ErrNoRows {
			return nil, err
		}
		c, err = scanContent(s.selectMaxAdmin.QueryRow(id))
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return c, err
	}
	c, err := scanContent(s.selectMaxPublished.QueryRow(id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetByName returns the child of parent with the given name, or nil. The
// status flag filters which revisions qualify: StatusLatest for admin
// readers, StatusPublished for public ones.
func (s *ContentStore) GetByName(domain string, parent int, name string, statusFlag int) (*ContentRow, error) {
	c, err := scanContent(s.selectByName.QueryRow(domain, parent, name, statusFlag))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// GetByNameCategory is GetByName narrowed to one category, so a same-named
// sibling of another category cannot mask a match.
func (s *ContentStore) GetByNameCategory(domain string, parent int, name string, category, statusFlag int) (*ContentRow, error) {
	c, err := scanContent(s.selectByNameCat.QueryRow(domain, parent, name, category, statusFlag))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// ChildIDs returns the distinct ids whose parent is the given id.
func (s *ContentStore) ChildIDs(parent int) ([]int, error) {
	return scanIDs(s.selectChildIDs.Query(parent))
}

// DomainRootIDs returns the distinct root-level ids of a domain.
func (s *ContentStore) DomainRootIDs(domain string) ([]int, error) {
	return scanIDs(s.selectDomainRootIDs.Query(domain))
}

// NewestChildName returns the name of the most recently created child of
// parent in the given category, or the empty string if there are none.
func (s *ContentStore) NewestChildName(parent, category int) (string, error) {
	var name string
	err := s.selectNewestChild.QueryRow(parent, category).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return name, err
}

func scanIDs(rows *sql.Rows, err error) ([]int, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids = []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Insert writes a new row. If c.ID is zero, a fresh id is assigned inside a
// transaction and written back to c. The status bitmask is recomputed.
func (s *ContentStore) Insert(c *ContentRow) error {

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if c.ID == 0 {
		var maxID int
		if err := tx.Stmt(s.selectMaxID).QueryRow().Scan(&maxID); err != nil {
			tx.Rollback()
			return err
		}
		c.ID = maxID + 1
	}

	_, err = tx.Stmt(s.insert).Exec(c.ID, c.Revision, c.Domain, c.Category, c.Name, c.Parent, c.Online, c.Offline, c.Modified, c.Author, c.Comment)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return s.UpdateStatus(c.ID)
}

// Update rewrites the mutable columns of one (id, revision) row and
// recomputes the status bitmask.
func (s *ContentStore) Update(c *ContentRow) error {
	_, err := s.update.Exec(c.Name, c.Parent, c.Online, c.Offline, c.Modified, c.Author, c.Comment, c.ID, c.Revision)
	if err != nil {
		return err
	}
	return s.UpdateStatus(c.ID)
}

// DeleteRevision removes one (id, revision) row and recomputes the status
// bitmask of the remaining revisions.
func (s *ContentStore) DeleteRevision(id, revision int) error {
	if _, err := s.deleteRevision.Exec(id, revision); err != nil {
		return err
	}
	return s.UpdateStatus(id)
}

// Delete removes all revisions of an id.
func (s *ContentStore) Delete(id int) error {
	_, err := s.deleteID.Exec(id)
	return err
}

// DeleteDomain removes all content rows of a domain.
func (s *ContentStore) DeleteDomain(domain string) error {
	_, err := s.deleteDomain.Exec(domain)
	return err
}

// UpdateStatus recomputes the status bitmask across all revisions of an id.
// The published flag goes to the highest revision above zero. The latest
// flag goes to the work revision if one exists, else to the highest
// revision.
func (s *ContentStore) UpdateStatus(id int) error {

	var min, max int
	if err := s.selectRevisionSpan.QueryRow(id).Scan(&min, &max); err != nil {
		return err
	}
	if min == -1 {
		return nil // no revisions left
	}

	if _, err := s.clearStatus.Exec(id); err != nil {
		return err
	}

	if max > 0 {
		if _, err := s.setStatus.Exec(StatusPublished, id, max); err != nil {
			return err
		}
	}
	if min > 0 {
		if _, err := s.setStatus.Exec(StatusLatest, id, max); err != nil {
			return err
		}
	} else {
		if _, err := s.setStatus.Exec(StatusLatest, id, 0); err != nil {
			return err
		}
	}
	return nil
}
