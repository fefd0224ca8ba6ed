package smtpd

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/core"
	"github.com/mazzlabs/mailworks/internal/parser"
)

const (
	commandTimeout  = 10 * time.Second
	deliveryTimeout = 30 * time.Second
)

type backend struct {
	srv *Server
}

// NewSession creates per-connection state. Submission sessions additionally
// expose SASL authentication; unauthenticated submissions are refused at
// MAIL time.
func (b *backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	sess := &session{
		srv:   b.srv,
		state: &core.Session{Role: b.srv.role},
	}
	if b.srv.role == core.RoleOutbound {
		return &submissionSession{session: sess}, nil
	}
	return sess, nil
}

// session drives the protocol steps for one connection. Protocol steps are
// strictly sequential within a connection; the explicit core.Session value
// carries the negotiated envelope between them.
type session struct {
	srv   *Server
	state *core.Session
}

func (s *session) Reset() {
	s.state.From = ""
	s.state.Recipients = nil
}

func (s *session) Logout() error {
	return nil
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	if s.state.Role == core.RoleOutbound && s.state.Account == nil {
		return smtp.ErrAuthRequired
	}
	if err := s.srv.authorizer.AcceptSender(s.state, from); err != nil {
		s.srv.logger.Info("Sender rejected",
			zap.String("listener", s.state.Role.String()),
			zap.String("from", from),
			zap.Error(err))
		return toSMTPError(err)
	}
	s.state.From = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := s.srv.authorizer.AcceptRecipient(ctx, s.state, to); err != nil {
		s.srv.logger.Info("Recipient rejected",
			zap.String("listener", s.state.Role.String()),
			zap.String("to", to),
			zap.Error(err))
		return toSMTPError(err)
	}
	s.state.Recipients = append(s.state.Recipients, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	msg, err := parser.Parse(raw)
	if err != nil {
		s.srv.logger.Warn("Undecodable message rejected",
			zap.String("listener", s.state.Role.String()),
			zap.String("from", s.state.From),
			zap.Error(err))
		return toSMTPError(err)
	}
	if msg.From == "" {
		msg.From = s.state.From
	}

	verdict := s.srv.scorer.Score(msg)

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	res := s.srv.engine.Deliver(ctx, s.state, msg)

	s.srv.logger.Info("Message processed",
		zap.String("listener", s.state.Role.String()),
		zap.String("message_id", res.MessageID),
		zap.String("from", msg.From),
		zap.Int64("size", msg.Size),
		zap.Int("copies", len(res.Copies)),
		zap.Int("failed_copies", len(res.Failures)),
		zap.Int("spam_score", verdict.Score),
		zap.String("spam_classification", string(verdict.Classification)),
		zap.String("spam_reason", verdict.Reason))
	return nil
}

// submissionSession adds mandatory SASL authentication on top of the base
// session.
type submissionSession struct {
	*session
}

func (s *submissionSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *submissionSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		acct, err := s.srv.authorizer.Authenticate(ctx, username, password)
		if err != nil {
			s.srv.logger.Info("Authentication failed",
				zap.String("username", username),
				zap.Error(err))
			return toSMTPError(err)
		}
		s.state.Account = acct
		return nil
	}), nil
}

// toSMTPError maps policy errors to SMTP status codes; anything unknown
// passes through for go-smtp's generic handling.
func toSMTPError(err error) error {
	switch {
	case errors.Is(err, core.ErrRelayDenied):
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 7, 1}, Message: "Relay access denied"}
	case errors.Is(err, core.ErrUnknownRecipient):
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "User not found"}
	case errors.Is(err, core.ErrSenderMismatch):
		return &smtp.SMTPError{Code: 553, EnhancedCode: smtp.EnhancedCode{5, 7, 1}, Message: "Sender must match authenticated user"}
	case errors.Is(err, core.ErrInvalidDomain):
		return &smtp.SMTPError{Code: 535, EnhancedCode: smtp.EnhancedCode{5, 7, 8}, Message: "Invalid email domain"}
	case errors.Is(err, core.ErrInvalidCredentials):
		return &smtp.SMTPError{Code: 535, EnhancedCode: smtp.EnhancedCode{5, 7, 8}, Message: "Invalid username or password"}
	case errors.Is(err, core.ErrMalformedMessage):
		return &smtp.SMTPError{Code: 554, EnhancedCode: smtp.EnhancedCode{5, 6, 0}, Message: "Message could not be parsed"}
	}
	return err
}
