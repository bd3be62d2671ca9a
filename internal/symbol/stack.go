package symbol

import (
	"context"
	"sync"
)

// Stack is an ordered collection of resolvers tried in registration order.
type Stack struct {
	mu        sync.Mutex
	resolvers []*Resolver
	resolving map[string]bool
}

// NewStack creates an empty resolver stack.
func NewStack() *Stack {
	return &Stack{resolving: make(map[string]bool)}
}

// Register appends r to the stack.
func (s *Stack) Register(r *Resolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvers = append(s.resolvers, r)
}

// Unregister removes r from the stack and reports whether it was present.
func (s *Stack) Unregister(r *Resolver) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, candidate := range s.resolvers {
		if candidate == r {
			s.resolvers = append(s.resolvers[:i], s.resolvers[i+1:]...)
			return true
		}
	}
	return false
}

// Resolvers returns a snapshot of the registered resolvers.
func (s *Stack) Resolvers() []*Resolver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Resolver(nil), s.resolvers...)
}

// Resolve asks each resolver in turn until one resolves typeName. An error
// from any resolver stops the walk. A name already being resolved further up
// the call stack is reported as not applicable, which breaks resolution loops
// between files that reference each other.
func (s *Stack) Resolve(ctx context.Context, typeName string) (string, bool, error) {
	s.mu.Lock()
	if s.resolving[typeName] {
		s.mu.Unlock()
		return "", false, nil
	}
	s.resolving[typeName] = true
	resolvers := append([]*Resolver(nil), s.resolvers...)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.resolving, typeName)
		s.mu.Unlock()
	}()

	for _, r := range resolvers {
		path, ok, err := r.Resolve(ctx, typeName)
		if err != nil {
			return "", false, err
		}
		if ok {
			return path, true, nil
		}
	}
	return "", false, nil
}
