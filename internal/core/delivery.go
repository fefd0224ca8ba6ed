package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine fans an accepted message out to every applicable local mailbox.
// It is the sole writer of stored copies at delivery time. Per-recipient
// writes are independent: a failed copy is logged and recorded in the
// result, but never rolls back copies already stored and never fails the
// SMTP transaction, which was committed at RCPT time.
type Engine struct {
	store  MailboxStore
	dir    IdentityDirectory
	domain string
	logger *zap.Logger
}

// NewEngine creates a delivery engine for the given local domain.
func NewEngine(store MailboxStore, dir IdentityDirectory, domain string, logger *zap.Logger) *Engine {
	return &Engine{
		store:  store,
		dir:    dir,
		domain: strings.ToLower(domain),
		logger: logger,
	}
}

// StoredCopy identifies one stored copy produced by a delivery.
type StoredCopy struct {
	CopyID    int64
	AccountID int64
	Address   string
	Mailbox   string
}

// RecipientFailure records a per-recipient store failure.
type RecipientFailure struct {
	Address string
	Mailbox string
	Err     error
}

// DeliveryResult reports the outcome of one fan-out.
type DeliveryResult struct {
	MessageID string
	Copies    []StoredCopy
	Failures  []RecipientFailure
}

// Deliver writes one copy of the message into the INBOX of every local
// recipient (To+Cc, deduplicated) and charges each recipient's storage
// usage. On the submission path an additional copy goes into the
// authenticated sender's Sent mailbox. A missing Message-ID is generated
// once and reused across every copy of this delivery.
func (e *Engine) Deliver(ctx context.Context, sess *Session, msg *Message) *DeliveryResult {
	if msg.MessageID == "" {
		msg.MessageID = fmt.Sprintf("<%s@%s>", uuid.New(), e.domain)
	}
	res := &DeliveryResult{MessageID: msg.MessageID}

	if sess.Role == RoleOutbound && sess.Account != nil {
		// Sent copies are not charged against the sender's quota.
		copyID, err := e.store.WriteCopy(ctx, sess.Account.ID, MailboxSent, msg)
		if err != nil {
			e.fail(res, sess.Account.Email, MailboxSent, err)
		} else {
			res.Copies = append(res.Copies, StoredCopy{
				CopyID:    copyID,
				AccountID: sess.Account.ID,
				Address:   sess.Account.Email,
				Mailbox:   MailboxSent,
			})
		}
	}

	for _, rcpt := range e.localRecipients(msg) {
		acct, err := e.dir.ResolveAddress(ctx, rcpt)
		if err != nil {
			e.fail(res, rcpt, MailboxInbox, err)
			continue
		}
		if acct == nil {
			// Local-domain address without an account. The inbound
			// authorizer rejects these at RCPT; header recipients on the
			// submission path are simply skipped.
			continue
		}
		copyID, err := e.store.WriteCopy(ctx, acct.ID, MailboxInbox, msg)
		if err != nil {
			e.fail(res, rcpt, MailboxInbox, err)
			continue
		}
		res.Copies = append(res.Copies, StoredCopy{
			CopyID:    copyID,
			AccountID: acct.ID,
			Address:   rcpt,
			Mailbox:   MailboxInbox,
		})
		if err := e.store.IncrementUsage(ctx, acct.ID, msg.Size); err != nil {
			e.logger.Error("Failed to update storage usage",
				zap.String("address", rcpt),
				zap.Int64("bytes", msg.Size),
				zap.Error(err))
		}
	}

	return res
}

func (e *Engine) fail(res *DeliveryResult, address, mailbox string, err error) {
	e.logger.Error("Failed to store message copy",
		zap.String("message_id", res.MessageID),
		zap.String("address", address),
		zap.String("mailbox", mailbox),
		zap.Error(err))
	res.Failures = append(res.Failures, RecipientFailure{
		Address: address,
		Mailbox: mailbox,
		Err:     err,
	})
}

// localRecipients returns the deduplicated To+Cc addresses under the local
// domain, lowercased.
func (e *Engine) localRecipients(msg *Message) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, addr := range append(append([]string(nil), msg.To...), msg.Cc...) {
		addr = strings.ToLower(strings.TrimSpace(addr))
		if addr == "" || !strings.HasSuffix(addr, "@"+e.domain) {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		out = append(out, addr)
	}
	return out
}
