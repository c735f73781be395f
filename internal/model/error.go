package model

import (
	"errors"
)

// ErrorResponse is the consistent JSON structure for all API error responses.
// The messenger uses the same shape for exceptions crossing a context boundary.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Wire codes for the error taxonomy.
const (
	CodeRejectedByUser   = "rejected_by_user"
	CodeInvalidPassword  = "invalid_password"
	CodeAlreadyExists    = "already_exists"
	CodeNotFound         = "not_found"
	CodeDecryptionFailed = "decryption_failed"
	CodeInvalidNetwork   = "invalid_network"
	CodeTestFault        = "test_fault"
	CodeUnknownMethod    = "unknown_method"
	CodeInvalidParams    = "invalid_params"
	CodeInternal         = "internal"
)

var (
	// ErrRejectedByUser means the user declined consent or gave no password.
	ErrRejectedByUser = errors.New("rejected by user")

	// ErrInvalidPassword means the password was wrong twice in a row.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrAlreadyExists means the identity is already held by the keyring.
	ErrAlreadyExists = errors.New("key already in keyring")

	// ErrNotFound means there is nothing stored under the requested key or identity.
	ErrNotFound = errors.New("not found")

	// ErrDecryptionFailed means the ciphertext could not be opened with the given password.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidNetwork means an unknown network profile was requested.
	ErrInvalidNetwork = errors.New("invalid network")

	// ErrTestFault is raised by diagnostic methods only.
	ErrTestFault = errors.New("test exception")

	// ErrUnknownMethod means the receiving context has no handler for the method.
	ErrUnknownMethod = errors.New("unknown method")

	// ErrInvalidParams means a call carried parameters the handler could not decode.
	ErrInvalidParams = errors.New("invalid params")
)

var codes = []struct {
	err  error
	code string
}{
	{ErrRejectedByUser, CodeRejectedByUser},
	{ErrInvalidPassword, CodeInvalidPassword},
	{ErrAlreadyExists, CodeAlreadyExists},
	{ErrNotFound, CodeNotFound},
	{ErrDecryptionFailed, CodeDecryptionFailed},
	{ErrInvalidNetwork, CodeInvalidNetwork},
	{ErrTestFault, CodeTestFault},
	{ErrUnknownMethod, CodeUnknownMethod},
	{ErrInvalidParams, CodeInvalidParams},
}

// ErrorCode returns the wire code for err, or CodeInternal if err is not part of the taxonomy.
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// NewErrorResponse converts err into its wire form.
func NewErrorResponse(err error) *ErrorResponse {
	return &ErrorResponse{Error: err.Error(), Code: ErrorCode(err)}
}

// RemoteError is an error received from another context.
// It unwraps to the matching sentinel so callers can keep using errors.Is.
type RemoteError struct {
	Message string
	Code    string
	kind    error
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.kind
}

// ErrorFromResponse restores an error received over the wire.
func ErrorFromResponse(resp *ErrorResponse) error {
	if resp == nil {
		return nil
	}
	remote := &RemoteError{Message: resp.Error, Code: resp.Code}
	for _, c := range codes {
		if c.code == resp.Code {
			remote.kind = c.err
			break
		}
	}
	return remote
}
