package github

import (
	"errors"
	"fmt"
	"net/http"

	githublib "github.com/google/go-github/v70/github"
)

// ErrAlreadyExists is returned when the entity being created already exists.
var ErrAlreadyExists = errors.New("already exists")

// ErrNotFound is returned when the addressed resource does not exist.
var ErrNotFound = errors.New("not found")

// NoDiffError indicates that there's no difference between branches for a PR
type NoDiffError struct {
	Head string
	Base string
}

func (e *NoDiffError) Error() string {
	return fmt.Sprintf("no diff found between branches: %s and %s", e.Head, e.Base)
}

func statusCode(err error) int {
	var errResp *githublib.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}

// isAlreadyExists reports a validation failure caused by a duplicate.
func isAlreadyExists(err error) bool {
	var errResp *githublib.ErrorResponse
	if !errors.As(err, &errResp) || errResp.Response == nil || errResp.Response.StatusCode != http.StatusUnprocessableEntity {
		return false
	}
	if len(errResp.Errors) == 0 {
		return true
	}
	for _, e := range errResp.Errors {
		if e.Code == "already_exists" {
			return true
		}
	}
	return false
}
