package data

import (
	"database/sql"
)

// UserRow is one user. Users with an empty domain are superusers.
type UserRow struct {
	Domain   string
	Name     string
	Password string // hash, never the cleartext
	Enabled  bool
	RealName string
	Email    string
	Comment  string
}

type UserStore struct {
	selectOne     *sql.Stmt
	selectByEmail *sql.Stmt
	selectFilter  *sql.Stmt
	countFilter   *sql.Stmt
	insert        *sql.Stmt
	update        *sql.Stmt
	delete        *sql.Stmt
	deleteDomain  *sql.Stmt
}

func NewUserStore(db *sql.DB) *UserStore {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_user (
			domain   VARCHAR(255) NOT NULL,
			name     VARCHAR(30) NOT NULL,
			password VARCHAR(100) NOT NULL DEFAULT '',
			enabled  INTEGER NOT NULL DEFAULT 1,
			realname VARCHAR(100) NOT NULL DEFAULT '',
			email    VARCHAR(100) NOT NULL DEFAULT '',
			comment  VARCHAR(255) NOT NULL DEFAULT '',
			PRIMARY KEY (domain, name)
		)`)
	if err != nil {
		panic(err)
	}

	const cols = "domain, name, password, enabled, realname, email, comment"

	return &UserStore{
		selectOne:     mustPrepare(db, "SELECT "+cols+" FROM ls_user WHERE domain = ? AND name = ?"),
		selectByEmail: mustPrepare(db, "SELECT "+cols+" FROM ls_user WHERE domain = ? AND email = ? ORDER BY name LIMIT 1"),
		selectFilter:  mustPrepare(db, "SELECT "+cols+" FROM ls_user WHERE domain = ? AND name LIKE ? ORDER BY name LIMIT ? OFFSET ?"),
		countFilter:   mustPrepare(db, "SELECT COUNT(*) FROM ls_user WHERE domain = ? AND name LIKE ?"),
		insert:        mustPrepare(db, "INSERT INTO ls_user ("+cols+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		update:        mustPrepare(db, "UPDATE ls_user SET password = ?, enabled = ?, realname = ?, email = ?, comment = ? WHERE domain = ? AND name = ?"),
		delete:        mustPrepare(db, "DELETE FROM ls_user WHERE domain = ? AND name = ?"),
		deleteDomain:  mustPrepare(db, "DELETE FROM ls_user WHERE domain = ?"),
	}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*UserRow, error) {
	var u UserRow
	err := row.Scan(&u.Domain, &u.Name, &u.Password, &u.Enabled, &u.RealName, &u.Email, &u.Comment)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Get returns one user, or nil if it does not exist.
func (s *UserStore) Get(domain, name string) (*UserRow, error) {
	u, err := scanUser(s.selectOne.QueryRow(domain, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// GetByEmail returns the first user in a domain with the given email
// address, or nil.
func (s *UserStore) GetByEmail(domain, email string) (*UserRow, error) {
	u, err := scanUser(s.selectByEmail.QueryRow(domain, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// Filter returns the users of a domain whose name contains the filter
// string, sorted by name, paged.
func (s *UserStore) Filter(domain, filter string, limit, offset int) ([]*UserRow, error) {
	rows, err := s.selectFilter.Query(domain, "%"+filter+"%", limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []*UserRow{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *UserStore) CountFilter(domain, filter string) (int, error) {
	var count int
	return count, s.countFilter.QueryRow(domain, "%"+filter+"%").Scan(&count)
}

func (s *UserStore) Insert(u *UserRow) error {
	_, err := s.insert.Exec(u.Domain, u.Name, u.Password, u.Enabled, u.RealName, u.Email, u.Comment)
	return err
}

func (s *UserStore) Update(u *UserRow) error {
	_, err := s.update.Exec(u.Password, u.Enabled, u.RealName, u.Email, u.Comment, u.Domain, u.Name)
	return err
}

func (s *UserStore) Delete(domain, name string) error {
	_, err := s.delete.Exec(domain, name)
	return err
}

func (s *UserStore) DeleteDomain(domain string) error {
	_, err := s.deleteDomain.Exec(domain)
	return err
}
