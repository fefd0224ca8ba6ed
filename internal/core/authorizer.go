package core

import (
	"context"
	"fmt"
	"strings"
)

// Authorizer implements the per-connection relay and authentication policy
// shared by both listeners. Decisions are computed fresh for every envelope
// step; nothing is cached across connections.
type Authorizer struct {
	domain string
	dir    IdentityDirectory
}

// NewAuthorizer creates an authorizer scoped to the given local domain.
func NewAuthorizer(domain string, dir IdentityDirectory) *Authorizer {
	return &Authorizer{
		domain: strings.ToLower(domain),
		dir:    dir,
	}
}

// LocalDomain returns the domain this server is authoritative for.
func (a *Authorizer) LocalDomain() string {
	return a.domain
}

// IsLocal reports whether the address belongs to the local domain.
func (a *Authorizer) IsLocal(address string) bool {
	return strings.HasSuffix(strings.ToLower(address), "@"+a.domain)
}

// AcceptSender validates the MAIL FROM step. On the submission listener the
// envelope sender must equal the authenticated identity's address; the
// inbound listener accepts any sender, since the recipient check is the
// real gate.
func (a *Authorizer) AcceptSender(sess *Session, from string) error {
	if sess.Role == RoleOutbound && sess.Account != nil && !strings.EqualFold(sess.Account.Email, from) {
		return fmt.Errorf("%w: %s authenticated as %s", ErrSenderMismatch, from, sess.Account.Email)
	}
	return nil
}

// AcceptRecipient validates the RCPT TO step. Inbound recipients must be
// under the local domain and resolve to an account. Submissions may address
// arbitrary external recipients; local copies are stored at delivery time.
func (a *Authorizer) AcceptRecipient(ctx context.Context, sess *Session, to string) error {
	if sess.Role == RoleOutbound {
		return nil
	}
	if !a.IsLocal(to) {
		return fmt.Errorf("%w: %s", ErrRelayDenied, to)
	}
	acct, err := a.dir.ResolveAddress(ctx, to)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", to, err)
	}
	if acct == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, to)
	}
	return nil
}

// Authenticate validates submission credentials and returns the account to
// bind to the session. The address must be under the local domain.
func (a *Authorizer) Authenticate(ctx context.Context, address, secret string) (*Account, error) {
	if !a.IsLocal(address) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDomain, address)
	}
	ok, err := a.dir.VerifyCredentials(ctx, address, secret)
	if err != nil {
		return nil, fmt.Errorf("verify credentials for %s: %w", address, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	acct, err := a.dir.ResolveAddress(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", address, err)
	}
	if acct == nil {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}
