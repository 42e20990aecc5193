package roles

import (
	"errors"
	"strings"
	"sync"
)

// FallbackHome is the home route of any role without an explicit entry.
const FallbackHome = "/"

// Table maps each role to its canonical home route.
type Table struct {
	mu     sync.RWMutex
	homes  map[Role]string
	frozen bool
}

// NewTable returns an empty, unfrozen [Table].
func NewTable() *Table {
	return &Table{homes: make(map[Role]string)}
}

// DefaultTable returns the frozen standard table:
// super_admin -> /superadmin, admin -> /admin, user -> /.
func DefaultTable() *Table {
	t := NewTable()
	_ = t.Register(SuperAdmin, "/superadmin")
	_ = t.Register(Admin, "/admin")
	_ = t.Register(User, "/")
	t.Freeze()
	return t
}

// Register sets the home route of role. It fails once the table is frozen.
func (t *Table) Register(role Role, home string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.frozen {
		return errors.New("role table frozen")
	}
	if role == "" {
		return errors.New("role name empty")
	}
	if !strings.HasPrefix(home, "/") {
		return errors.New("home route must be an absolute path")
	}
	if _, exists := t.homes[role]; exists {
		return errors.New("role already registered")
	}

	t.homes[role] = home
	return nil
}

// Home returns the canonical home of role, or [FallbackHome].
func (t *Table) Home(role Role) string {
	if t == nil {
		return FallbackHome
	}
	t.mu.RLock()
	defer t.mu.RUnlock()

	if home, ok := t.homes[role]; ok {
		return home
	}
	return FallbackHome
}

// Freeze makes the table read-only.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// Count returns the number of registered roles.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.homes)
}
