package core

import (
	"context"
)

// MailboxStore persists message copies per account and tracks storage usage.
type MailboxStore interface {
	// WriteCopy stores one copy of the message in the named mailbox of the
	// account and returns the copy id assigned by the store.
	WriteCopy(ctx context.Context, accountID int64, mailbox string, msg *Message) (int64, error)

	// IncrementUsage adds n bytes to the account's storage-used counter.
	// The increment must be atomic: concurrent deliveries to the same
	// account must not lose updates.
	IncrementUsage(ctx context.Context, accountID int64, n int64) error
}

// IdentityDirectory resolves addresses to accounts and validates credentials.
type IdentityDirectory interface {
	// ResolveAddress returns the account owning the address, or (nil, nil)
	// when no account exists for it.
	ResolveAddress(ctx context.Context, address string) (*Account, error)

	// VerifyCredentials reports whether secret is valid for the address.
	// An unknown address verifies as false without error.
	VerifyCredentials(ctx context.Context, address, secret string) (bool, error)
}
