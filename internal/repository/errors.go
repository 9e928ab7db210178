package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound represents a resource not found error in the repository layer.
type ErrNotFound struct {
	Resource    string // The type of resource (e.g., "candidate memory", "node")
	ID          string // The identifier that was not found
	CandidateID string // The candidate context, if applicable
}

func (e ErrNotFound) Error() string {
	if e.CandidateID != "" && e.CandidateID != e.ID {
		return fmt.Sprintf("%s with ID '%s' not found for candidate '%s'", e.Resource, e.ID, e.CandidateID)
	}
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// IsNotFound checks if an error is a repository not found error.
func IsNotFound(err error) bool {
	var e ErrNotFound
	return errors.As(err, &e)
}

// ErrConflict represents a creation conflict, e.g. the candidate
// already has a stored memory.
type ErrConflict struct {
	Resource string
	ID       string
	Reason   string
}

func (e ErrConflict) Error() string {
	return fmt.Sprintf("conflict with %s '%s': %s", e.Resource, e.ID, e.Reason)
}

// IsConflict checks if an error is a repository conflict error.
func IsConflict(err error) bool {
	var e ErrConflict
	return errors.As(err, &e)
}

// ErrConstraintViolation represents a rejected structural mutation:
// unknown parent or the depth bound hit. Distinct from not-found so
// callers can stop growing a tree instead of treating the candidate as
// missing.
type ErrConstraintViolation struct {
	CandidateID string
	Reason      string
	Cause       error
}

func (e ErrConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation for candidate '%s': %s", e.CandidateID, e.Reason)
}

func (e ErrConstraintViolation) Unwrap() error { return e.Cause }

// IsConstraintViolation checks if an error is a constraint violation.
func IsConstraintViolation(err error) bool {
	var e ErrConstraintViolation
	return errors.As(err, &e)
}

// ErrContention is returned when an optimistic write exhausted its
// retry budget against concurrent writers.
type ErrContention struct {
	CandidateID string
	Attempts    int
}

func (e ErrContention) Error() string {
	return fmt.Sprintf("write contention on candidate '%s': gave up after %d attempts", e.CandidateID, e.Attempts)
}

// IsContention checks if an error is a contention error.
func IsContention(err error) bool {
	var e ErrContention
	return errors.As(err, &e)
}

// NewNotFound creates a new ErrNotFound.
func NewNotFound(resource, id string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id}
}

// NewNotFoundWithCandidate creates a new ErrNotFound with candidate context.
func NewNotFoundWithCandidate(resource, id, candidateID string) ErrNotFound {
	return ErrNotFound{Resource: resource, ID: id, CandidateID: candidateID}
}

// NewConflict creates a new ErrConflict.
func NewConflict(resource, id, reason string) ErrConflict {
	return ErrConflict{Resource: resource, ID: id, Reason: reason}
}

// NewConstraintViolation creates a new ErrConstraintViolation.
func NewConstraintViolation(candidateID, reason string, cause error) ErrConstraintViolation {
	return ErrConstraintViolation{CandidateID: candidateID, Reason: reason, Cause: cause}
}

// NewContention creates a new ErrContention.
func NewContention(candidateID string, attempts int) ErrContention {
	return ErrContention{CandidateID: candidateID, Attempts: attempts}
}
