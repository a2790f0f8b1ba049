package editing

import "errors"

// ErrScopeActive is returned by EnterScope while another scope is active on
// the connection.
var ErrScopeActive = errors.New("an editing scope is already active on this connection")

// ErrScopeExited is returned by scope operations after Exit.
var ErrScopeExited = errors.New("the editing scope has already exited")

// IsScopeActive reports whether err means a scope was already active.
func IsScopeActive(err error) bool {
	return errors.Is(err, ErrScopeActive)
}

// IsScopeExited reports whether err means the scope had already exited.
func IsScopeExited(err error) bool {
	return errors.Is(err, ErrScopeExited)
}
