package content

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

var ErrUnknownKind = errors.New("no resolver registered for content kind")

// Reference identifies a flaggable item without depending on its schema.
// The flag core never dereferences it; hosts that need the underlying
// object go through a Registry.
type Reference struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
}

func (r Reference) IsZero() bool {
	return r.Kind == "" && r.ID == 0
}

func (r Reference) String() string {
	return fmt.Sprintf("%s/%d", r.Kind, r.ID)
}

// Resolver maps a content id back to the host's own domain object.
type Resolver interface {
	Resolve(id int64) (any, error)
}

// Registry maps content kinds to resolvers. Host modules register their
// kinds at startup; registration after that is allowed but unusual.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
}

func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

func (reg *Registry) Register(kind string, r Resolver) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.resolvers[kind] = r
}

func (reg *Registry) Kinds() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	kinds := make([]string, 0, len(reg.resolvers))
	for k := range reg.resolvers {
		kinds = append(kinds, k)
	}
	return kinds
}

func (reg *Registry) Resolve(ref Reference) (any, error) {
	reg.mu.RLock()
	r, ok := reg.resolvers[ref.Kind]
	reg.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, ref.Kind)
	}
	return r.Resolve(ref.ID)
}

// ForContent returns a GORM scope that filters by content reference columns.
func ForContent(ref Reference) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("content_kind = ? AND content_id = ?", ref.Kind, ref.ID)
	}
}
