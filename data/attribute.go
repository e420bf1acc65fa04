package data

import (
	"database/sql"
)

// AttributeStore holds the revision-scoped string attributes of content rows
// and the per-domain attribute map.
type AttributeStore struct {
	db                *sql.DB
	selectRevision    *sql.Stmt
	insert            *sql.Stmt
	update            *sql.Stmt
	deleteName        *sql.Stmt
	deleteRevision    *sql.Stmt
	deleteContent     *sql.Stmt
	deleteDomain      *sql.Stmt
	selectDomainAttrs *sql.Stmt
	insertDomainAttr  *sql.Stmt
	deleteDomainAttrs *sql.Stmt
	selectNameAcross  *sql.Stmt
}

func NewAttributeStore(db *sql.DB) *AttributeStore {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_attribute (
			content  INTEGER NOT NULL,
			revision INTEGER NOT NULL,
			name     VARCHAR(200) NOT NULL,
			data     TEXT NOT NULL,
			PRIMARY KEY (content, revision, name)
		)`)
	if err != nil {
		panic(err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_domain_attribute (
			domain VARCHAR(255) NOT NULL,
			name   VARCHAR(200) NOT NULL,
			data   TEXT NOT NULL,
			PRIMARY KEY (domain, name)
		)`)
	if err != nil {
		panic(err)
	}

	return &AttributeStore{
		db:                db,
		selectRevision:    mustPrepare(db, "SELECT name, data FROM ls_attribute WHERE content = ? AND revision = ?"),
		insert:            mustPrepare(db, "INSERT INTO ls_attribute (content, revision, name, data) VALUES (?, ?, ?, ?)"),
		update:            mustPrepare(db, "UPDATE ls_attribute SET data = ? WHERE content = ? AND revision = ? AND name = ?"),
		deleteName:        mustPrepare(db, "DELETE FROM ls_attribute WHERE content = ? AND revision = ? AND name = ?"),
		deleteRevision:    mustPrepare(db, "DELETE FROM ls_attribute WHERE content = ? AND revision = ?"),
		deleteContent:     mustPrepare(db, "DELETE FROM ls_attribute WHERE content = ?"),
		deleteDomain:      mustPrepare(db, "DELETE FROM ls_attribute WHERE content IN (SELECT DISTINCT id FROM ls_content WHERE domain = ?)"),
		selectDomainAttrs: mustPrepare(db, "SELECT name, data FROM ls_domain_attribute WHERE domain = ?"),
		insertDomainAttr:  mustPrepare(db, "INSERT INTO ls_domain_attribute (domain, name, data) VALUES (?, ?, ?)"),
		deleteDomainAttrs: mustPrepare(db, "DELETE FROM ls_domain_attribute WHERE domain = ?"),
		selectNameAcross:  mustPrepare(db, "SELECT DISTINCT data FROM ls_attribute WHERE content = ? AND name = ?"),
	}
}

// Get returns the attribute map of one (content, revision) pair.
func (s *AttributeStore) Get(content, revision int) (map[string]string, error) {
	rows, err := s.selectRevision.Query(content, revision)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attrs = map[string]string{}
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		attrs[name] = data
	}
	return attrs, rows.Err()
}

// ValuesAcrossRevisions returns the distinct values of one attribute name
// over all surviving revisions of a content id.
func (s *AttributeStore) ValuesAcrossRevisions(content int, name string) ([]string, error) {
	rows, err := s.selectNameAcross.Query(content, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var values = []string{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		values = append(values, data)
	}
	return values, rows.Err()
}

func (s *AttributeStore) Insert(content, revision int, name, data string) error {
	_, err := s.insert.Exec(content, revision, name, data)
	return err
}

func (s *AttributeStore) Update(content, revision int, name, data string) error {
	_, err := s.update.Exec(data, content, revision, name)
	return err
}

func (s *AttributeStore) Delete(content, revision int, name string) error {
	_, err := s.deleteName.Exec(content, revision, name)
	return err
}

func (s *AttributeStore) DeleteRevision(content, revision int) error {
	_, err := s.deleteRevision.Exec(content, revision)
	return err
}

func (s *AttributeStore) DeleteContent(content int) error {
	_, err := s.deleteContent.Exec(content)
	return err
}

// DeleteDomain removes the content attributes of a domain. It must run
// before the content rows themselves are deleted.
func (s *AttributeStore) DeleteDomain(domain string) error {
	if _, err := s.deleteDomain.Exec(domain); err != nil {
		return err
	}
	_, err := s.deleteDomainAttrs.Exec(domain)
	return err
}

// GetDomain returns the attribute map of a domain.
func (s *AttributeStore) GetDomain(domain string) (map[string]string, error) {
	rows, err := s.selectDomainAttrs.Query(domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attrs = map[string]string{}
	for rows.Next() {
		var name, data string
		if err := rows.Scan(&name, &data); err != nil {
			return nil, err
		}
		attrs[name] = data
	}
	return attrs, rows.Err()
}

// SetDomain replaces the attribute map of a domain.
func (s *AttributeStore) SetDomain(domain string, attrs map[string]string) error {
	if _, err := s.deleteDomainAttrs.Exec(domain); err != nil {
		return err
	}
	for name, data := range attrs {
		if _, err := s.insertDomainAttr.Exec(domain, name, data); err != nil {
			return err
		}
	}
	return nil
}
