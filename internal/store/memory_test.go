package store

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/core"
)

func TestMemoryStoreAccounts(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "Alice@Mazzlabs.Works", "secret")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if acct.Email != "alice@mazzlabs.works" {
		t.Errorf("email = %q, not lowercased", acct.Email)
	}
	if acct.Username != "alice" {
		t.Errorf("username = %q", acct.Username)
	}
	if acct.StorageQuota != defaultStorageQuota {
		t.Errorf("quota = %d", acct.StorageQuota)
	}

	if _, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "other"); err == nil {
		t.Error("duplicate account accepted")
	}

	got, err := s.ResolveAddress(ctx, "ALICE@mazzlabs.works")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	if got == nil || got.ID != acct.ID {
		t.Errorf("resolved %+v", got)
	}

	missing, err := s.ResolveAddress(ctx, "nobody@mazzlabs.works")
	if err != nil {
		t.Fatalf("ResolveAddress missing: %v", err)
	}
	if missing != nil {
		t.Errorf("resolved nonexistent account: %+v", missing)
	}
}

func TestMemoryStoreCredentials(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	if _, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "secret"); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	ok, err := s.VerifyCredentials(ctx, "alice@mazzlabs.works", "secret")
	if err != nil || !ok {
		t.Errorf("valid credentials: ok=%v err=%v", ok, err)
	}
	ok, err = s.VerifyCredentials(ctx, "alice@mazzlabs.works", "wrong")
	if err != nil || ok {
		t.Errorf("invalid credentials: ok=%v err=%v", ok, err)
	}
	ok, err = s.VerifyCredentials(ctx, "nobody@mazzlabs.works", "secret")
	if err != nil || ok {
		t.Errorf("unknown account: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreCopies(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "secret")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	msg := &core.Message{MessageID: "<m1@mazzlabs.works>", Subject: "first", Size: 42}
	id1, err := s.WriteCopy(ctx, acct.ID, core.MailboxInbox, msg)
	if err != nil {
		t.Fatalf("WriteCopy: %v", err)
	}
	id2, err := s.WriteCopy(ctx, acct.ID, core.MailboxSent, msg)
	if err != nil {
		t.Fatalf("WriteCopy: %v", err)
	}
	if id1 == id2 {
		t.Errorf("copy IDs not distinct: %d", id1)
	}

	copies := s.Copies(acct.ID)
	if len(copies) != 2 {
		t.Fatalf("copies = %d, want 2", len(copies))
	}
	if copies[0].Mailbox != core.MailboxInbox || copies[1].Mailbox != core.MailboxSent {
		t.Errorf("mailboxes = %q, %q", copies[0].Mailbox, copies[1].Mailbox)
	}
}

func TestMemoryStoreIncrementUsage(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	acct, err := s.CreateAccount(ctx, "alice@mazzlabs.works", "secret")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if err := s.IncrementUsage(ctx, acct.ID, 3); err != nil {
					t.Errorf("IncrementUsage: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	got, err := s.ResolveAddress(ctx, "alice@mazzlabs.works")
	if err != nil {
		t.Fatalf("ResolveAddress: %v", err)
	}
	want := int64(workers * perWorker * 3)
	if got.StorageUsed != want {
		t.Errorf("storage used = %d, want %d", got.StorageUsed, want)
	}

	if err := s.IncrementUsage(ctx, 999, 1); err == nil {
		t.Error("increment for unknown account accepted")
	}
}
