package core

// Message is a mail message decoded from a complete SMTP DATA payload.
// It is immutable after decoding, except for MessageID which the delivery
// engine assigns when the wire message did not carry one.
type Message struct {
	MessageID   string
	From        string
	To          []string
	Cc          []string
	Bcc         []string
	Subject     string
	Text        string
	HTML        string
	Headers     map[string][]string
	Attachments []Attachment
	Size        int64
}

// Attachment describes an attachment by metadata only; the content itself
// is not retained by the delivery pipeline.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
}

// Account is a local mail account resolved through the identity directory.
type Account struct {
	ID           int64
	Email        string
	Username     string
	StorageQuota int64
	StorageUsed  int64
}

// ListenerRole distinguishes the anonymous MX listener from the
// authenticated submission listener.
type ListenerRole int

const (
	// RoleInbound accepts mail from anywhere for local recipients only.
	RoleInbound ListenerRole = iota
	// RoleOutbound accepts submissions from authenticated local users.
	RoleOutbound
)

func (r ListenerRole) String() string {
	switch r {
	case RoleInbound:
		return "inbound"
	case RoleOutbound:
		return "outbound"
	default:
		return "unknown"
	}
}

// Session is the per-connection state threaded explicitly through every
// protocol step. It lives for the duration of one TCP connection and is
// never persisted.
type Session struct {
	Role       ListenerRole
	Account    *Account // authenticated identity, nil on the inbound listener
	From       string
	Recipients []string
}

// Mailbox names provisioned for every account.
const (
	MailboxInbox  = "INBOX"
	MailboxSent   = "Sent"
	MailboxDrafts = "Drafts"
	MailboxTrash  = "Trash"
	MailboxSpam   = "Spam"
)

// DefaultMailboxes is the mailbox set created with every new account.
var DefaultMailboxes = []string{MailboxInbox, MailboxSent, MailboxDrafts, MailboxTrash, MailboxSpam}
