package data

import (
	"database/sql"
)

type HostRow struct {
	Name        string // DNS host name, lowercase
	Domain      string
	Description string
	Options     string // key=value:key=value codec, decoded by the content package
}

type HostStore struct {
	selectAll    *sql.Stmt
	selectName   *sql.Stmt
	selectDomain *sql.Stmt
	insert       *sql.Stmt
	update       *sql.Stmt
	delete       *sql.Stmt
	deleteDomain *sql.Stmt
}

func NewHostStore(db *sql.DB) *HostStore {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_host (
			name        VARCHAR(255) NOT NULL,
			domain      VARCHAR(255) NOT NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			options     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (name)
		)`)
	if err != nil {
		panic(err)
	}

	return &HostStore{
		selectAll:    mustPrepare(db, "SELECT name, domain, description, options FROM ls_host ORDER BY name"),
		selectName:   mustPrepare(db, "SELECT name, domain, description, options FROM ls_host WHERE name = ?"),
		selectDomain: mustPrepare(db, "SELECT name, domain, description, options FROM ls_host WHERE domain = ? ORDER BY name"),
		insert:       mustPrepare(db, "INSERT INTO ls_host (name, domain, description, options) VALUES (?, ?, ?, ?)"),
		update:       mustPrepare(db, "UPDATE ls_host SET domain = ?, description = ?, options = ? WHERE name = ?"),
		delete:       mustPrepare(db, "DELETE FROM ls_host WHERE name = ?"),
		deleteDomain: mustPrepare(db, "DELETE FROM ls_host WHERE domain = ?"),
	}
}

func (s *HostStore) scanAll(rows *sql.Rows, err error) ([]*HostRow, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []*HostRow{}
	for rows.Next() {
		var h HostRow
		if err := rows.Scan(&h.Name, &h.Domain, &h.Description, &h.Options); err != nil {
			return nil, err
		}
		result = append(result, &h)
	}
	return result, rows.Err()
}

func (s *HostStore) GetAll() ([]*HostRow, error) {
	return s.scanAll(s.selectAll.Query())
}

func (s *HostStore) GetByDomain(domain string) ([]*HostRow, error) {
	return s.scanAll(s.selectDomain.Query(domain))
}

// Get returns one host, or nil if it does not exist.
func (s *HostStore) Get(name string) (*HostRow, error) {
	var h HostRow
	err := s.selectName.QueryRow(name).Scan(&h.Name, &h.Domain, &h.Description, &h.Options)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *HostStore) Insert(h *HostRow) error {
	_, err := s.insert.Exec(h.Name, h.Domain, h.Description, h.Options)
	return err
}

func (s *HostStore) Update(h *HostRow) error {
	_, err := s.update.Exec(h.Domain, h.Description, h.Options, h.Name)
	return err
}

func (s *HostStore) Delete(name string) error {
	_, err := s.delete.Exec(name)
	return err
}

func (s *HostStore) DeleteDomain(domain string) error {
	_, err := s.deleteDomain.Exec(domain)
	return err
}
