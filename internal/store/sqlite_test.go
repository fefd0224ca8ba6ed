package store

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/core"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "mail.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteAccountLifecycle(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "Alice@Mazzlabs.Works", "secret")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if acct.Email != "alice@mazzlabs.works" || acct.Username != "alice" {
		t.Errorf("account = %+v", acct)
	}

	if _, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "other"); err == nil {
		t.Error("duplicate email accepted")
	}

	got, err := s.ResolveAddress(ctx, "ALICE@mazzlabs.works")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if got == nil || got.ID != acct.ID || got.StorageQuota != defaultStorageQuota {
		t.Errorf("resolved %+v", got)
	}

	missing, err := s.ResolveAddress(ctx, "nobody@mazzlabs.works")
	if err != nil {
		t.Fatalf("ResolveAddress missing: %v", err)
	}
	if missing != nil {
		t.Errorf("resolved nonexistent account: %+v", missing)
	}

	ok, err := s.VerifyCredentials(ctx, "alice@mazzlabs.works", "secret")
	if err != nil || !ok {
		t.Errorf("valid credentials: ok=%v err=%v", ok, err)
	}
	ok, err = s.VerifyCredentials(ctx, "alice@mazzlabs.works", "wrong")
	if err != nil || ok {
		t.Errorf("invalid credentials: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteWriteCopy(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "secret")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	msg := &core.Message{
		MessageID: "<m1@mazzlabs.works>",
		From:      "sender@example.com",
		To:        []string{"alice@mazzlabs.works", "bob@mazzlabs.works"},
		Subject:   "hello",
		Text:      "plain body",
		HTML:      "<p>html body</p>",
		Headers:   map[string][]string{"X-Test": {"1"}},
		Attachments: []core.Attachment{
			{Filename: "notes.txt", ContentType: "text/plain", Size: 11},
		},
		Size: 1024,
	}

	id1, err := s.WriteCopy(ctx, acct.ID, core.MailboxInbox, msg)
	if err != nil {
		t.Fatalf("WriteCopy: %v", err)
	}
	// The same Message-ID may be stored more than once; copies are
	// distinguished by their row ID.
	id2, err := s.WriteCopy(ctx, acct.ID, core.MailboxSent, msg)
	if err != nil {
		t.Fatalf("second WriteCopy: %v", err)
	}
	if id1 == id2 {
		t.Errorf("copy IDs not distinct: %d", id1)
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM emails WHERE message_id = ?`, msg.MessageID).Scan(&count); err != nil {
		t.Fatalf("count copies: %v", err)
	}
	if count != 2 {
		t.Errorf("stored copies = %d, want 2", count)
	}
}

func TestSQLiteIncrementUsage(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "secret")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	if err := s.IncrementUsage(ctx, acct.ID, 100); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if err := s.IncrementUsage(ctx, acct.ID, 250); err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}

	got, err := s.ResolveAddress(ctx, "alice@mazzlabs.works")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if got.StorageUsed != 350 {
		t.Errorf("storage used = %d, want 350", got.StorageUsed)
	}
}

func TestSQLiteDefaultMailboxes(t *testing.T) {
	t.Parallel()

	s := newTestSQLiteStore(t)
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "secret")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM mailboxes WHERE user_id = ?`, acct.ID).Scan(&count); err != nil {
		t.Fatalf("count mailboxes: %v", err)
	}
	if count != len(core.DefaultMailboxes) {
		t.Errorf("mailboxes = %d, want %d", count, len(core.DefaultMailboxes))
	}
}
