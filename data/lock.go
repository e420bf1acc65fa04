package data

import (
	"database/sql"
)

// LockRow is an advisory editing lock, at most one per content id.
type LockRow struct {
	Domain   string
	Content  int
	User     string
	Acquired int64
}

type LockStore struct {
	selectOne    *sql.Stmt
	insert       *sql.Stmt
	delete       *sql.Stmt
	deleteDomain *sql.Stmt
}

func NewLockStore(db *sql.DB) *LockStore {

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ls_lock (
			domain    VARCHAR(255) NOT NULL,
			content   INTEGER NOT NULL,
			user_name VARCHAR(30) NOT NULL,
			acquired  INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (content)
		)`)
	if err != nil {
		panic(err)
	}

	return &LockStore{
		selectOne:    mustPrepare(db, "SELECT domain, content, user_name, acquired FROM ls_lock WHERE content = ?"),
		insert:       mustPrepare(db, "INSERT INTO ls_lock (domain, content, user_name, acquired) VALUES (?, ?, ?, ?)"),
		delete:       mustPrepare(db, "DELETE FROM ls_lock WHERE content = ?"),
		deleteDomain: mustPrepare(db, "DELETE FROM ls_lock WHERE domain = ?"),
	}
}

// Get returns the lock on a content id, or nil if there is none.
func (s *LockStore) Get(content int) (*LockRow, error) {
	var l LockRow
	err := s.selectOne.QueryRow(content).Scan(&l.Domain, &l.Content, &l.User, &l.Acquired)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *LockStore) Insert(l *LockRow) error {
	_, err := s.insert.Exec(l.Domain, l.Content, l.User, l.Acquired)
	return err
}

func (s *LockStore) Delete(content int) error {
	_, err := s.delete.Exec(content)
	return err
}

func (s *LockStore) DeleteDomain(domain string) error {
	_, err := s.deleteDomain.Exec(domain)
	return err
}
