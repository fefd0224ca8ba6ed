// Package smtpd runs the SMTP listener pair: an anonymous inbound MX
// endpoint and an authenticated submission endpoint, sharing one
// authorizer, delivery engine and spam scorer.
package smtpd

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/core"
	"github.com/mazzlabs/mailworks/internal/spam"
)

// Config carries the listener pair settings.
type Config struct {
	Domain            string
	Hostname          string
	InboundAddress    string
	SubmissionAddress string
	MaxMessageBytes   int64
	MaxRecipients     int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	TLSCertFile       string
	TLSKeyFile        string
}

// Server is one SMTP endpoint.
type Server struct {
	role       core.ListenerRole
	server     *smtp.Server
	authorizer *core.Authorizer
	engine     *core.Engine
	scorer     *spam.Scorer
	logger     *zap.Logger
	useTLS     bool
	listener   net.Listener
}

// Pair bundles the two listeners sharing one pipeline.
type Pair struct {
	Inbound    *Server
	Submission *Server
}

// NewPair configures both listeners. Transport encryption on the submission
// endpoint is negotiated from the configured key/certificate paths; when
// the material is absent or unusable the listener starts unencrypted with a
// warning, which also permits plaintext AUTH.
func NewPair(cfg Config, authorizer *core.Authorizer, engine *core.Engine, scorer *spam.Scorer, logger *zap.Logger) *Pair {
	inbound := newServer(core.RoleInbound, cfg, cfg.InboundAddress, authorizer, engine, scorer, logger)
	submission := newServer(core.RoleOutbound, cfg, cfg.SubmissionAddress, authorizer, engine, scorer, logger)

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			logger.Warn("TLS certificates not usable, submission listener runs without TLS", zap.Error(err))
		} else {
			submission.server.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
			submission.useTLS = true
		}
	} else {
		logger.Warn("No TLS certificates configured, submission listener runs without TLS")
	}
	if !submission.useTLS {
		submission.server.AllowInsecureAuth = true
	}

	return &Pair{Inbound: inbound, Submission: submission}
}

func newServer(role core.ListenerRole, cfg Config, addr string, authorizer *core.Authorizer, engine *core.Engine, scorer *spam.Scorer, logger *zap.Logger) *Server {
	srv := &Server{
		role:       role,
		authorizer: authorizer,
		engine:     engine,
		scorer:     scorer,
		logger:     logger,
	}

	s := smtp.NewServer(&backend{srv: srv})
	s.Addr = addr
	s.Domain = cfg.Hostname
	s.ReadTimeout = cfg.ReadTimeout
	s.WriteTimeout = cfg.WriteTimeout
	s.MaxMessageBytes = cfg.MaxMessageBytes
	s.MaxRecipients = cfg.MaxRecipients
	srv.server = s
	return srv
}

// Start binds the endpoint and serves connections in a background
// goroutine. One goroutine per accepted connection is driven by go-smtp.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	if s.useTLS {
		ln = tls.NewListener(ln, s.server.TLSConfig)
	}
	s.listener = ln

	s.logger.Info("SMTP listener started",
		zap.String("role", s.role.String()),
		zap.String("address", ln.Addr().String()),
		zap.Bool("tls", s.useTLS))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			s.logger.Error("SMTP server error",
				zap.String("role", s.role.String()),
				zap.Error(err))
		}
	}()
	return nil
}

// Stop closes the endpoint and its active connections.
func (s *Server) Stop() error {
	return s.server.Close()
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start starts both listeners.
func (p *Pair) Start() error {
	if err := p.Inbound.Start(); err != nil {
		return err
	}
	if err := p.Submission.Start(); err != nil {
		p.Inbound.Stop()
		return err
	}
	return nil
}

// Stop stops both listeners.
func (p *Pair) Stop() error {
	return errors.Join(p.Inbound.Stop(), p.Submission.Stop())
}
