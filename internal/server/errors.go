package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/knowledge-dashboard/internal/knowledge"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var loadErr *knowledge.LoadError
	if errors.As(err, &loadErr) {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}
