package data

import (
	"database/sql"
)

type GroupRow struct {
	Domain      string
	Name        string
	Description string
	Comment     string
}

// GroupStore holds groups and the user-group membership relation.
type GroupStore struct {
	selectOne        *sql.Stmt
	selectDomain     *sql.Stmt
	insert           *sql.Stmt
	update           *sql.Stmt
	delete           *sql.Stmt
	deleteDomain     *sql.Stmt
	selectUserGroups *sql.Stmt
	selectMembers    *sql.Stmt
	countMembers     *sql.Stmt
	insertMember     *sql.Stmt
	deleteMember     *sql.Stmt
	deleteUserRefs   *sql.Stmt
	deleteGroupRefs  *sql.Stmt
	deleteDomainRefs *sql.Stmt
}

func NewGroupStore(db *sql.DB) *GroupStore {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_group (
			domain      VARCHAR(255) NOT NULL,
			name        VARCHAR(30) NOT NULL,
			description VARCHAR(255) NOT NULL DEFAULT '',
			comment     VARCHAR(255) NOT NULL DEFAULT '',
			PRIMARY KEY (domain, name)
		)`)
	if err != nil {
		panic(err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_user_group (
			domain     VARCHAR(255) NOT NULL,
			user_name  VARCHAR(30) NOT NULL,
			group_name VARCHAR(30) NOT NULL,
			PRIMARY KEY (domain, user_name, group_name)
		)`)
	if err != nil {
		panic(err)
	}

	return &GroupStore{
		selectOne:        mustPrepare(db, "SELECT domain, name, description, comment FROM ls_group WHERE domain = ? AND name = ?"),
		selectDomain:     mustPrepare(db, "SELECT domain, name, description, comment FROM ls_group WHERE domain = ? ORDER BY name"),
		insert:           mustPrepare(db, "INSERT INTO ls_group (domain, name, description, comment) VALUES (?, ?, ?, ?)"),
		update:           mustPrepare(db, "UPDATE ls_group SET description = ?, comment = ? WHERE domain = ? AND name = ?"),
		delete:           mustPrepare(db, "DELETE FROM ls_group WHERE domain = ? AND name = ?"),
		deleteDomain:     mustPrepare(db, "DELETE FROM ls_group WHERE domain = ?"),
		selectUserGroups: mustPrepare(db, "SELECT group_name FROM ls_user_group WHERE domain = ? AND user_name = ? ORDER BY group_name"),
		selectMembers:    mustPrepare(db, "SELECT user_name FROM ls_user_group WHERE domain = ? AND group_name = ? ORDER BY user_name LIMIT ? OFFSET ?"),
		countMembers:     mustPrepare(db, "SELECT COUNT(*) FROM ls_user_group WHERE domain = ? AND group_name = ?"),
		insertMember:     mustPrepare(db, "INSERT INTO ls_user_group (domain, user_name, group_name) VALUES (?, ?, ?)"),
		deleteMember:     mustPrepare(db, "DELETE FROM ls_user_group WHERE domain = ? AND user_name = ? AND group_name = ?"),
		deleteUserRefs:   mustPrepare(db, "DELETE FROM ls_user_group WHERE domain = ? AND user_name = ?"),
		deleteGroupRefs:  mustPrepare(db, "DELETE FROM ls_user_group WHERE domain = ? AND group_name = ?"),
		deleteDomainRefs: mustPrepare(db, "DELETE FROM ls_user_group WHERE domain = ?"),
	}
}

// Get returns one group, or nil if it does not exist.
func (s *GroupStore) Get(domain, name string) (*GroupRow, error) {
	var g GroupRow
	err := s.selectOne.QueryRow(domain, name).Scan(&g.Domain, &g.Name, &g.Description, &g.Comment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByDomain returns the groups of a domain sorted by name.
func (s *GroupStore) GetByDomain(domain string) ([]*GroupRow, error) {
	rows, err := s.selectDomain.Query(domain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []*GroupRow{}
	for rows.Next() {
		var g GroupRow
		if err := rows.Scan(&g.Domain, &g.Name, &g.Description, &g.Comment); err != nil {
			return nil, err
		}
		result = append(result, &g)
	}
	return result, rows.Err()
}

func (s *GroupStore) Insert(g *GroupRow) error {
	_, err := s.insert.Exec(g.Domain, g.Name, g.Description, g.Comment)
	return err
}

func (s *GroupStore) Update(g *GroupRow) error {
	_, err := s.update.Exec(g.Description, g.Comment, g.Domain, g.Name)
	return err
}

// Delete removes a group and its membership rows.
func (s *GroupStore) Delete(domain, name string) error {
	if _, err := s.deleteGroupRefs.Exec(domain, name); err != nil {
		return err
	}
	_, err := s.delete.Exec(domain, name)
	return err
}

func (s *GroupStore) DeleteDomain(domain string) error {
	if _, err := s.deleteDomainRefs.Exec(domain); err != nil {
		return err
	}
	_, err := s.deleteDomain.Exec(domain)
	return err
}

// UserGroups returns the group names a user belongs to.
func (s *GroupStore) UserGroups(domain, userName string) ([]string, error) {
	return scanStrings(s.selectUserGroups.Query(domain, userName))
}

// Members returns a page of the user names in a group.
func (s *GroupStore) Members(domain, groupName string, limit, offset int) ([]string, error) {
	return scanStrings(s.selectMembers.Query(domain, groupName, limit, offset))
}

func (s *GroupStore) CountMembers(domain, groupName string) (int, error) {
	var count int
	return count, s.countMembers.QueryRow(domain, groupName).Scan(&count)
}

func (s *GroupStore) AddMember(domain, userName, groupName string) error {
	_, err := s.insertMember.Exec(domain, userName, groupName)
	return err
}

func (s *GroupStore) RemoveMember(domain, userName, groupName string) error {
	_, err := s.deleteMember.Exec(domain, userName, groupName)
	return err
}

// RemoveUser removes all memberships of a user.
func (s *GroupStore) RemoveUser(domain, userName string) error {
	_, err := s.deleteUserRefs.Exec(domain, userName)
	return err
}

func scanStrings(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result = []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
