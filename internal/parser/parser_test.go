package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/mazzlabs/mailworks/internal/core"
)

func TestParseSimpleMessage(t *testing.T) {
	t.Parallel()

	raw := []byte("From: Alice <alice@example.com>\r\n" +
		"To: bob@mazzlabs.works\r\n" +
		"Subject: Hello\r\n" +
		"Message-Id: <abc123@example.com>\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Hello Bob\r\n")

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if msg.From != "alice@example.com" {
		t.Errorf("From = %q", msg.From)
	}
	if len(msg.To) != 1 || msg.To[0] != "bob@mazzlabs.works" {
		t.Errorf("To = %v", msg.To)
	}
	if msg.Subject != "Hello" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.MessageID != "abc123@example.com" {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
	if strings.TrimSpace(msg.Text) != "Hello Bob" {
		t.Errorf("Text = %q", msg.Text)
	}
	if msg.Size != int64(len(raw)) {
		t.Errorf("Size = %d, want %d", msg.Size, len(raw))
	}
	if len(msg.Headers["Subject"]) == 0 {
		t.Error("raw headers were not retained")
	}
}

func TestParseAddressLists(t *testing.T) {
	t.Parallel()

	raw := []byte("From: alice@example.com\r\n" +
		"To: Bob <bob@mazzlabs.works>, carol@mazzlabs.works\r\n" +
		"Cc: dave@example.org\r\n" +
		"Subject: Meeting\r\n" +
		"\r\n" +
		"See you there.\r\n")

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantTo := []string{"bob@mazzlabs.works", "carol@mazzlabs.works"}
	if len(msg.To) != len(wantTo) {
		t.Fatalf("To = %v, want %v", msg.To, wantTo)
	}
	for i := range wantTo {
		if msg.To[i] != wantTo[i] {
			t.Errorf("To[%d] = %q, want %q", i, msg.To[i], wantTo[i])
		}
	}
	if len(msg.Cc) != 1 || msg.Cc[0] != "dave@example.org" {
		t.Errorf("Cc = %v", msg.Cc)
	}
}

func TestParseMissingMessageID(t *testing.T) {
	t.Parallel()

	raw := []byte("From: alice@example.com\r\n" +
		"To: bob@mazzlabs.works\r\n" +
		"Subject: No ID\r\n" +
		"\r\n" +
		"body\r\n")

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if msg.MessageID != "" {
		t.Errorf("MessageID = %q, want empty", msg.MessageID)
	}
}

func TestParseMultipartWithAttachment(t *testing.T) {
	t.Parallel()

	raw := []byte("From: alice@example.com\r\n" +
		"To: bob@mazzlabs.works\r\n" +
		"Subject: Report\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=MIXED\r\n" +
		"\r\n" +
		"--MIXED\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"See attached.\r\n" +
		"--MIXED\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>See attached.</p>\r\n" +
		"--MIXED\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"Content-Disposition: attachment; filename=\"notes.txt\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"aGVsbG8gd29ybGQ=\r\n" +
		"--MIXED--\r\n")

	msg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !strings.Contains(msg.Text, "See attached.") {
		t.Errorf("Text = %q", msg.Text)
	}
	if !strings.Contains(msg.HTML, "<p>See attached.</p>") {
		t.Errorf("HTML = %q", msg.HTML)
	}
	if len(msg.Attachments) != 1 {
		t.Fatalf("Attachments = %v", msg.Attachments)
	}
	att := msg.Attachments[0]
	if att.Filename != "notes.txt" {
		t.Errorf("Filename = %q", att.Filename)
	}
	if att.ContentType != "application/octet-stream" {
		t.Errorf("ContentType = %q", att.ContentType)
	}
	// "hello world" decoded from base64
	if att.Size != 11 {
		t.Errorf("Size = %d, want 11", att.Size)
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("this is not a mail message"))
	if err == nil {
		t.Fatal("expected error for malformed input")
	}
	if !errors.Is(err, core.ErrMalformedMessage) {
		t.Errorf("error does not wrap ErrMalformedMessage: %v", err)
	}
}
