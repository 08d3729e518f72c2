package identity

import (
	"errors"
	"fmt"

	"github.com/cryfox/vaultcore/internal/common"
)

// genericErrorMessage is used when an error reply carries no message.
const genericErrorMessage = "unknown error from identity service"

// ErrInvalidResponse is returned for replies that are not a JSON object.
var ErrInvalidResponse = errors.New("invalid JSON response from identity service")

// RemoteServiceError is a non-2xx reply from the identity service.
type RemoteServiceError struct {
	Status  int
	Message string
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("identity service: %s (status %d)", e.Message, e.Status)
}

// Unwrap lets callers match common.ErrRemoteService with errors.Is.
func (e *RemoteServiceError) Unwrap() error {
	return common.ErrRemoteService
}
