package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mazzlabs/mailworks/internal/core"
)

// MySQLStore is a MySQL implementation of the Store interface.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to a MySQL mail database and initializes the
// schema if needed.
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(255) NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			storage_quota BIGINT DEFAULT 1073741824,
			storage_used BIGINT DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS mailboxes (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			user_id BIGINT NOT NULL,
			name VARCHAR(64) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_user_mailbox (user_id, name),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id BIGINT PRIMARY KEY AUTO_INCREMENT,
			message_id VARCHAR(512) NOT NULL,
			user_id BIGINT NOT NULL,
			mailbox VARCHAR(64) DEFAULT 'INBOX',
			from_address VARCHAR(512) NOT NULL,
			to_address TEXT,
			cc TEXT,
			bcc TEXT,
			subject TEXT,
			body_text MEDIUMTEXT,
			body_html MEDIUMTEXT,
			headers MEDIUMTEXT,
			attachments TEXT,
			size BIGINT DEFAULT 0,
			is_read BOOLEAN DEFAULT FALSE,
			is_flagged BOOLEAN DEFAULT FALSE,
			is_deleted BOOLEAN DEFAULT FALSE,
			received_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_emails_user_id (user_id),
			INDEX idx_emails_mailbox (mailbox),
			INDEX idx_emails_message_id (message_id(255)),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

func (s *MySQLStore) CreateAccount(ctx context.Context, email, password string) (*core.Account, error) {
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

func (s *MySQLStore) ResolveAddress(ctx context.Context, address string) (*core.Account, error) {
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

func (s *MySQLStore) VerifyCredentials(ctx context.Context, address, secret string) (bool, error) {
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

func (s *MySQLStore) WriteCopy(ctx context.Context, accountID int64, mailbox string, msg *core.Message) (int64, error) {
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

func (s *MySQLStore) IncrementUsage(ctx context.Context, accountID int64, n int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET storage_used = storage_used + ? WHERE id = ?`, n, accountID)
	if err != nil {
		return fmt.Errorf("update storage usage: %w", err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}
