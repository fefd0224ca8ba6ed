// Package parser decodes complete SMTP DATA payloads into structured
// messages. It is a pure transform: no I/O, no shared state.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/mazzlabs/mailworks/internal/core"
)

// Parse decodes a raw message buffer into a core.Message. The caller
// guarantees the buffer is a complete payload with the end-of-data marker
// already consumed by the protocol layer.
//
// A missing Message-ID and missing body parts are tolerated; To and Cc are
// normalized to address lists regardless of their wire shape. Undecodable
// structure fails with an error wrapping core.ErrMalformedMessage.
func Parse(raw []byte) (*core.Message, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedMessage, err)
	}

	msg := &core.Message{
		Headers: make(map[string][]string),
		Size:    int64(len(raw)),
	}

	if id, err := mr.Header.MessageID(); err == nil {
		msg.MessageID = id
	}
	if subject, err := mr.Header.Subject(); err == nil {
		msg.Subject = subject
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].Address
	}
	msg.To = addressList(&mr.Header, "To")
	msg.Cc = addressList(&mr.Header, "Cc")
	msg.Bcc = addressList(&mr.Header, "Bcc")

	fields := mr.Header.Fields()
	for fields.Next() {
		msg.Headers[fields.Key()] = append(msg.Headers[fields.Key()], fields.Value())
	}

	var textParts, htmlParts []string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrMalformedMessage, err)
		}

		switch header := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := header.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", core.ErrMalformedMessage, err)
			}
			switch contentType {
			case "text/html":
				htmlParts = append(htmlParts, strings.ToValidUTF8(string(body), ""))
			case "text/plain", "":
				textParts = append(textParts, strings.ToValidUTF8(string(body), ""))
			}
		case *mail.AttachmentHeader:
			filename, _ := header.Filename()
			contentType, _, _ := header.ContentType()
			// Content is drained for its size and discarded; only the
			// descriptor is retained.
			n, _ := io.Copy(io.Discard, part.Body)
			msg.Attachments = append(msg.Attachments, core.Attachment{
				Filename:    filename,
				ContentType: contentType,
				Size:        n,
			})
		}
	}

	msg.Text = strings.Join(textParts, "\n")
	msg.HTML = strings.Join(htmlParts, "\n")
	return msg, nil
}

func addressList(header *mail.Header, key string) []string {
	list, err := header.AddressList(key)
	if err != nil || len(list) == 0 {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, addr := range list {
		out = append(out, addr.Address)
	}
	return out
}
