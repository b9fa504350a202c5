package graph

import "fmt"

// NotFoundError is returned when a requested node or edge does not exist
// within the given org. Handlers map it to 404.
type NotFoundError struct {
	Entity string
	OrgID string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s (org %s)", e.Entity, e.ID, e.OrgID)
}

// BadRequestError is returned for malformed or incomplete request bodies.
// Handlers map it to 400.
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string { return e.Message }

// DependencyError wraps a failure from DS/KV/OS/EP/VX. Handlers map it to 500.
type DependencyError struct {
	Dependency string
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s dependency failure: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }
