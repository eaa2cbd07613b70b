package agent

import "fmt"

// CollaboratorError marks a failure of one of the assistant's collaborators
// (session store, router, answerer, dialogue, sink) so callers can tell
// infrastructure trouble from bad input.
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

func collaboratorErr(name string, err error) *CollaboratorError {
	return &CollaboratorError{Collaborator: name, Err: err}
}
