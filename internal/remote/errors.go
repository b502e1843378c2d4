package remote

import "fmt"

// ValidationError reports malformed input to the connector itself. It is
// always raised before any network I/O happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// RemoteConnectionError reports a transport or auth failure talking to the
// remote server. Reads are safe to retry; event creation is not without a
// dedupe key.
type RemoteConnectionError struct {
	Op  string
	Err error
}

func (e *RemoteConnectionError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteConnectionError) Unwrap() error {
	return e.Err
}

// RemoteDataError reports a remote calendar or event that cannot be
// translated into the local model, attributable to the offending object.
type RemoteDataError struct {
	Path   string
	Reason string
}

func (e *RemoteDataError) Error() string {
	return fmt.Sprintf("untranslatable remote object %q: %s", e.Path, e.Reason)
}
