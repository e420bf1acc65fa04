package data

import (
	"database/sql"
)

type DomainRow struct {
	Name        string
	Description string
	Created     int64
	Modified    int64
}

type DomainStore struct {
	selectAll  *sql.Stmt
	selectName *sql.Stmt
	insert     *sql.Stmt
	update     *sql.Stmt
	delete     *sql.Stmt
}

func NewDomainStore(db *sql.DB) *DomainStore {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_domain (
			name        VARCHAR(255) NOT NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			created     INTEGER NOT NULL DEFAULT 0,
			modified    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (name)
		)`)
	if err != nil {
		panic(err)
	}

	return &DomainStore{
		selectAll:  mustPrepare(db, "SELECT name, description, created, modified FROM ls_domain ORDER BY name"),
		selectName: mustPrepare(db, "SELECT name, description, created, modified FROM ls_domain WHERE name = ?"),
		insert:     mustPrepare(db, "INSERT INTO ls_domain (name, description, created, modified) VALUES (?, ?, ?, ?)"),
		update:     mustPrepare(db, "UPDATE ls_domain SET description = ?, modified = ? WHERE name = ?"),
		delete:     mustPrepare(db, "DELETE FROM ls_domain WHERE name = ?"),
	}
}

// GetAll returns all domains sorted by name.
func (s *DomainStore) GetAll() ([]*DomainRow, error) {
	rows, err := s.selectAll.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []*DomainRow{}
	for rows.Next() {
		var d DomainRow
		if err := rows.Scan(&d.Name, &d.Description, &d.Created, &d.Modified); err != nil {
			return nil, err
		}
		result = append(result, &d)
	}
	return result, rows.Err()
}

// Get returns one domain, or nil if it does not exist.
func (s *DomainStore) Get(name string) (*DomainRow, error) {
	var d DomainRow
	err := s.selectName.QueryRow(name).Scan(&d.Name, &d.Description, &d.Created, &d.Modified)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DomainStore) Insert(d *DomainRow) error {
	_, err := s.insert.Exec(d.Name, d.Description, d.Created, d.Modified)
	return err
}

func (s *DomainStore) Update(d *DomainRow) error {
	_, err := s.update.Exec(d.Description, d.Modified, d.Name)
	return err
}

func (s *DomainStore) Delete(name string) error {
	_, err := s.delete.Exec(name)
	return err
}
