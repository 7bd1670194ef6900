// stack.go provides a slice backed stack that holds arbitrary data.
// The bottom element is the first entry into the stack, while the top is
// the last entry to be added to the stack. The stack does not store <nil>
// values. It serves as the explicit work stack for tree walks that must not
// recurse on the native call stack.

package util

import "sync"

// Stack is a LIFO stack.
type Stack struct {
	e  []interface{} // Entries, bottom first.
	mx sync.Mutex    // For synchronising multiple worker threads to one stack.
}

// NewStack returns a stack with room for n entries before it has to grow.
func NewStack(n int) *Stack {
	if n < 0 {
		n = 0
	}
	return &Stack{e: make([]interface{}, 0, n)}
}

// Push adds a new element to the top of the stack.
func (s *Stack) Push(e interface{}) {
	if e == nil {
		return
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	s.e = append(s.e, e)
}

// Pop removes and returns the last inserted element on the stack.
// If no element has been added <nil> is returned.
func (s *Stack) Pop() interface{} {
	s.mx.Lock()
	defer s.mx.Unlock()
	if len(s.e) == 0 {
		return nil
	}
	top := s.e[len(s.e)-1]
	s.e[len(s.e)-1] = nil
	s.e = s.e[:len(s.e)-1]
	return top
}

// Size returns the number of elements in the stack.
func (s *Stack) Size() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return len(s.e)
}
