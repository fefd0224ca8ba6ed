// Package store provides the mailbox-store and identity-directory adapters
// consumed by the delivery pipeline: in-memory for tests and development,
// SQLite and MySQL for real deployments.
package store

import (
	"context"

	"github.com/mazzlabs/mailworks/internal/core"
)

// defaultStorageQuota is the per-account storage allowance (1 GiB).
const defaultStorageQuota = 1 << 30

// Store combines the two consumed ports with the account-management
// operations the daemon itself needs.
type Store interface {
	core.MailboxStore
	core.IdentityDirectory

	// CreateAccount provisions an account with the default mailbox set.
	CreateAccount(ctx context.Context, email, password string) (*core.Account, error)

	// Close releases the underlying resources.
	Close() error
}
