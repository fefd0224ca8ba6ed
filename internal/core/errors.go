package core

import "errors"

// Rejection kinds surfaced to the SMTP layer, which maps them to protocol
// status codes. Wrap with fmt.Errorf("%w: ...") to add context.
var (
	// ErrMalformedMessage indicates an undecodable DATA payload.
	ErrMalformedMessage = errors.New("malformed message")
	// ErrRelayDenied indicates a recipient outside the local domain on the
	// inbound listener.
	ErrRelayDenied = errors.New("relay access denied")
	// ErrUnknownRecipient indicates a local-domain address with no account.
	ErrUnknownRecipient = errors.New("user not found")
	// ErrSenderMismatch indicates an envelope sender that differs from the
	// authenticated identity.
	ErrSenderMismatch = errors.New("sender must match authenticated user")
	// ErrInvalidDomain indicates an authentication attempt for an address
	// outside the local domain.
	ErrInvalidDomain = errors.New("invalid email domain")
	// ErrInvalidCredentials indicates a failed credential check.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
