package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mazzlabs/mailworks/internal/core"
)

// MemoryStore is an in-memory Store used by tests and the "memory" driver.
// Safe for concurrent use.
type MemoryStore struct {
	mu         sync.Mutex
	logger     *zap.Logger
	nextAcctID int64
	nextCopyID int64
	accounts   map[string]*core.Account // keyed by lowercased address
	passwords  map[int64][]byte         // bcrypt hashes
	copies     map[int64][]Copy
}

// Copy is one stored message copy, exposed for test inspection.
type Copy struct {
	ID      int64
	Mailbox string
	Message *core.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		logger:    logger,
		accounts:  make(map[string]*core.Account),
		passwords: make(map[int64][]byte),
		copies:    make(map[int64][]Copy),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, email, password string) (*core.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	key := strings.ToLower(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[key]; exists {
		return nil, fmt.Errorf("account %s already exists", key)
	}
	s.nextAcctID++
	acct := &core.Account{
		ID:           s.nextAcctID,
		Email:        key,
		Username:     strings.SplitN(key, "@", 2)[0],
		StorageQuota: defaultStorageQuota,
	}
	s.accounts[key] = acct
	s.passwords[acct.ID] = hash

	snapshot := *acct
	return &snapshot, nil
}

func (s *MemoryStore) ResolveAddress(ctx context.Context, address string) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[strings.ToLower(address)]
	if !ok {
		return nil, nil
	}
	snapshot := *acct
	return &snapshot, nil
}

func (s *MemoryStore) VerifyCredentials(ctx context.Context, address, secret string) (bool, error) {
	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(address)]
	var hash []byte
	if ok {
		hash = s.passwords[acct.ID]
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil, nil
}

func (s *MemoryStore) WriteCopy(ctx context.Context, accountID int64, mailbox string, msg *core.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCopyID++
	s.copies[accountID] = append(s.copies[accountID], Copy{
		ID:      s.nextCopyID,
		Mailbox: mailbox,
		Message: msg,
	})
	return s.nextCopyID, nil
}

func (s *MemoryStore) IncrementUsage(ctx context.Context, accountID int64, n int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, acct := range s.accounts {
		if acct.ID == accountID {
			acct.StorageUsed += n
			return nil
		}
	}
	return fmt.Errorf("account %d not found", accountID)
}

// Copies returns the stored copies of an account, for inspection.
func (s *MemoryStore) Copies(accountID int64) []Copy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Copy(nil), s.copies[accountID]...)
}

func (s *MemoryStore) Close() error {
	return nil
}
