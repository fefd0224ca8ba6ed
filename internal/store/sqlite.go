package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mazzlabs/mailworks/internal/core"
)

// SQLiteStore is a SQLite implementation of the Store interface.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed initializes) a SQLite mail database.
func NewSQLiteStore(path string, logger *zap.Logger) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY
	// under concurrent deliveries.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			username TEXT NOT NULL,
			password TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			storage_quota INTEGER DEFAULT 1073741824,
			storage_used INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS mailboxes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(user_id, name),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			mailbox TEXT DEFAULT 'INBOX',
			from_address TEXT NOT NULL,
			to_address TEXT,
			cc TEXT,
			bcc TEXT,
			subject TEXT,
			body_text TEXT,
			body_html TEXT,
			headers TEXT,
			attachments TEXT,
			size INTEGER DEFAULT 0,
			is_read BOOLEAN DEFAULT 0,
			is_flagged BOOLEAN DEFAULT 0,
			is_deleted BOOLEAN DEFAULT 0,
			received_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_user_id ON emails(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_mailbox ON emails(mailbox)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_message_id ON emails(message_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, email, password string) (*core.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email = strings.ToLower(email)
	username := strings.SplitN(email, "@", 2)[0]

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, username, password) VALUES (?, ?, ?)`,
		email, username, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create account %s: %w", email, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	for _, name := range core.DefaultMailboxes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mailboxes (user_id, name) VALUES (?, ?)`, id, name); err != nil {
			return nil, fmt.Errorf("create mailbox %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit account: %w", err)
	}

	return &core.Account{
		ID:           id,
		Email:        email,
		Username:     username,
		StorageQuota: defaultStorageQuota,
	}, nil
}

func (s *SQLiteStore) ResolveAddress(ctx context.Context, address string) (*core.Account, error) {
	acct := &core.Account{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, username, storage_quota, storage_used FROM users WHERE email = ?`,
		strings.ToLower(address),
	).Scan(&acct.ID, &acct.Email, &acct.Username, &acct.StorageQuota, &acct.StorageUsed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query account: %w", err)
	}
	return acct, nil
}

func (s *SQLiteStore) VerifyCredentials(ctx context.Context, address, secret string) (bool, error) {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM users WHERE email = ?`, strings.ToLower(address),
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query credentials: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil, nil
}

func (s *SQLiteStore) WriteCopy(ctx context.Context, accountID int64, mailbox string, msg *core.Message) (int64, error) {
	headers, attachments, err := encodeJSONColumns(msg)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO emails (
			message_id, user_id, mailbox, from_address, to_address,
			cc, bcc, subject, body_text, body_html, headers, attachments, size
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.MessageID, accountID, mailbox, msg.From,
		strings.Join(msg.To, ", "), strings.Join(msg.Cc, ", "), strings.Join(msg.Bcc, ", "),
		msg.Subject, msg.Text, msg.HTML, headers, attachments, msg.Size)
	if err != nil {
		return 0, fmt.Errorf("insert copy: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) IncrementUsage(ctx context.Context, accountID int64, n int64) error {
	// Single-statement update keeps the increment atomic under concurrent
	// deliveries to the same account.
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET storage_used = storage_used + ? WHERE id = ?`, n, accountID)
	if err != nil {
		return fmt.Errorf("update storage usage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func encodeJSONColumns(msg *core.Message) (headers, attachments string, err error) {
	h, err := json.Marshal(msg.Headers)
	if err != nil {
		return "", "", fmt.Errorf("encode headers: %w", err)
	}
	a, err := json.Marshal(msg.Attachments)
	if err != nil {
		return "", "", fmt.Errorf("encode attachments: %w", err)
	}
	return string(h), string(a), nil
}
