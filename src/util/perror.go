package util

import "sync"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// perror provides a structure for listening for errors reported from parallel worker threads and means for retrieving
// errors when a parallel job has been completed.
type perror struct {
	listen     chan error    // Channel for receiving error messages from worker threads.
	done       chan struct{} // Closed by the listener when it has drained the listen channel.
	errors     []error       // Buffer of error messages.
	sync.Mutex               // For synchronising writes and reads.
}

// ----------------------
// ----- Constants ------
// ----------------------

// defaultBufferSize defines the fallback buffer size of the error array.
const defaultBufferSize = 16

// ---------------------
// ----- functions -----
// ---------------------

// NewPerror returns a pointer to a perror struct with n number of pre-allocated slots for errors in the buffer.
func NewPerror(n int) *perror {
	if n < 1 {
		n = defaultBufferSize
	}
	pe := perror{
		listen: make(chan error, n),
		done:   make(chan struct{}),
		errors: make([]error, 0, n),
	}
	go pe.run()
	return &pe
}

// run collects errors from the listen channel until it is closed by Stop.
func (pe *perror) run() {
	defer close(pe.done)
	for err := range pe.listen {
		pe.Lock()
		pe.errors = append(pe.errors, err)
		pe.Unlock()
	}
}

// Len returns the number of buffered errors.
func (pe *perror) Len() int {
	pe.Lock()
	defer pe.Unlock()
	return len(pe.errors)
}

// Stop closes the listener and waits until every reported error has been buffered.
// Append must not be called after Stop.
func (pe *perror) Stop() {
	close(pe.listen)
	<-pe.done
}

// Append sends the error message err to the error listener. <nil> errors are ignored.
func (pe *perror) Append(err error) {
	if err != nil {
		pe.listen <- err
	}
}

// Errors returns a copy of the reported errors in order of arrival.
func (pe *perror) Errors() []error {
	pe.Lock()
	defer pe.Unlock()
	res := make([]error, len(pe.errors))
	copy(res, pe.errors)
	return res
}
