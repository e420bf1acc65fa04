// Package content implements the versioned content tree: domains, hosts,
// users, groups, permission lists, locks and the content nodes themselves,
// with access control and an in-process cache over the data layer.
package content

import (
	"fmt"

	"github.com/pkg/errors"
)

// SecurityError reports a denied operation. It carries the acting user, the
// operation and a description of the target so callers can render a
// forbidden response instead of a server error.
type SecurityError struct {
	User   string
	Op     string
	Target string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("access denied: user %s, %s %s", e.User, e.Op, e.Target)
}

func newSecurityError(user *User, op, target string) *SecurityError {
	name := "anonymous"
	if user != nil {
		name = user.Name()
	}
	return &SecurityError{User: name, Op: op, Target: target}
}

// IsSecurityError reports whether err is an access denial rather than a
// content or storage problem.
func IsSecurityError(err error) bool {
	var se *SecurityError
	return errors.As(err, &se)
}

func errAlreadyPersistent(r record) error {
	return errors.Errorf("cannot restore %s, it already exists", r.describe())
}
