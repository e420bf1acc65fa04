package data

import (
	"database/sql"
)

// PermissionRow is one access rule. Content zero means the rule is attached
// to the domain itself. Empty user and group names make the rule a wildcard
// matching everyone, including anonymous readers.
type PermissionRow struct {
	Domain  string
	Content int
	User    string
	Group   string
	Read    bool
	Write   bool
	Publish bool
	Admin   bool
}

type PermissionStore struct {
	selectOwner  *sql.Stmt
	insert       *sql.Stmt
	deleteOwner  *sql.Stmt
	deleteDomain *sql.Stmt
}

func NewPermissionStore(db *sql.DB) *PermissionStore {

	// can_* because some dialects reserve the bare words
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_permission (
			domain      VARCHAR(255) NOT NULL,
			content     INTEGER NOT NULL DEFAULT 0,
			user_name   VARCHAR(30) NOT NULL DEFAULT '',
			group_name  VARCHAR(30) NOT NULL DEFAULT '',
			can_read    INTEGER NOT NULL DEFAULT 0,
			can_write   INTEGER NOT NULL DEFAULT 0,
			can_publish INTEGER NOT NULL DEFAULT 0,
			can_admin   INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (domain, content, user_name, group_name)
		)`)
	if err != nil {
		panic(err)
	}

	return &PermissionStore{
		selectOwner: mustPrepare(db, "SELECT domain, content, user_name, group_name, can_read, can_write, can_publish, can_admin"+
			" FROM ls_permission WHERE domain = ? AND content = ? ORDER BY user_name, group_name"),
		insert: mustPrepare(db, "INSERT INTO ls_permission (domain, content, user_name, group_name, can_read, can_write, can_publish, can_admin)"+
			" VALUES (?, ?, ?, ?, ?, ?, ?, ?)"),
		deleteOwner:  mustPrepare(db, "DELETE FROM ls_permission WHERE domain = ? AND content = ?"),
		deleteDomain: mustPrepare(db, "DELETE FROM ls_permission WHERE domain = ?"),
	}
}

// GetByOwner returns the rules attached to one owner: a content id, or the
// domain itself when content is zero.
func (s *PermissionStore) GetByOwner(domain string, content int) ([]*PermissionRow, error) {
	rows, err := s.selectOwner.Query(domain, content)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []*PermissionRow{}
	for rows.Next() {
		var p PermissionRow
		if err := rows.Scan(&p.Domain, &p.Content, &p.User, &p.Group, &p.Read, &p.Write, &p.Publish, &p.Admin); err != nil {
			return nil, err
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// SetByOwner replaces the rules attached to one owner.
func (s *PermissionStore) SetByOwner(domain string, content int, perms []*PermissionRow) error {
	if _, err := s.deleteOwner.Exec(domain, content); err != nil {
		return err
	}
	for _, p := range perms {
		if _, err := s.insert.Exec(domain, content, p.User, p.Group, p.Read, p.Write, p.Publish, p.Admin); err != nil {
			return err
		}
	}
	return nil
}

func (s *PermissionStore) DeleteByOwner(domain string, content int) error {
	_, err := s.deleteOwner.Exec(domain, content)
	return err
}

func (s *PermissionStore) DeleteDomain(domain string) error {
	_, err := s.deleteDomain.Exec(domain)
	return err
}
