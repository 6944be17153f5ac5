package session

import (
	"github.com/grovetools/termestra/errors"
)

// Registry maps session names to sessions. A name is first declared, then
// provisioned exactly once. Declaration order is preserved.
type Registry struct {
	order    []string
	sessions map[string]*Session
}

// NewRegistry declares names in order. A repeated name fails with
// ErrCodeDuplicateSession.
func NewRegistry(names ...string) (*Registry, error) {
	r := &Registry{sessions: make(map[string]*Session, len(names))}
	for _, name := range names {
		if err := r.Declare(name); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Declare adds a name that has not been provisioned yet.
func (r *Registry) Declare(name string) error {
	if _, exists := r.sessions[name]; exists {
		return errors.DuplicateSession(name)
	}
	r.sessions[name] = nil
	r.order = append(r.order, name)
	return nil
}

// IsDeclared reports whether name is known to the registry.
func (r *Registry) IsDeclared(name string) bool {
	_, ok := r.sessions[name]
	return ok
}

// IsProvisioned reports whether name has a session attached.
func (r *Registry) IsProvisioned(name string) bool {
	return r.sessions[name] != nil
}

// Provision attaches s to its declared name. Unknown names fail with
// ErrCodeUnknownSession, names already provisioned with ErrCodeDuplicateSession.
func (r *Registry) Provision(s *Session) error {
	current, ok := r.sessions[s.Name]
	if !ok {
		return errors.UnknownSession(s.Name)
	}
	if current != nil {
		return errors.DuplicateSession(s.Name).WithDetail("id", current.Handle())
	}
	r.sessions[s.Name] = s
	return nil
}

// Lookup returns the provisioned session for name.
func (r *Registry) Lookup(name string) (*Session, error) {
	s, ok := r.sessions[name]
	if !ok {
		return nil, errors.UnknownSession(name)
	}
	if s == nil {
		return nil, errors.UnknownSession(name).WithDetail("provisioned", false)
	}
	return s, nil
}

// Names returns every declared name in declaration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Sessions returns the provisioned sessions in declaration order.
func (r *Registry) Sessions() []*Session {
	out := make([]*Session, 0, len(r.order))
	for _, name := range r.order {
		if s := r.sessions[name]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Len is the number of declared names.
func (r *Registry) Len() int { return len(r.order) }
