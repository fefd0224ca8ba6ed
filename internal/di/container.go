package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mazzlabs/mailworks/internal/config"
	"github.com/mazzlabs/mailworks/internal/core"
	"github.com/mazzlabs/mailworks/internal/factory"
	"github.com/mazzlabs/mailworks/internal/logging"
	"github.com/mazzlabs/mailworks/internal/smtpd"
	"github.com/mazzlabs/mailworks/internal/spam"
	"github.com/mazzlabs/mailworks/internal/store"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}

	// Register storage backend
	if err := container.Provide(func(f *factory.StoreFactory) (store.Store, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}

	// Register the store under its core-facing interfaces
	if err := container.Provide(func(s store.Store) core.MailboxStore {
		return s
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s store.Store) core.IdentityDirectory {
		return s
	}); err != nil {
		return nil, err
	}

	// Register connection authorizer
	if err := container.Provide(func(cfg *config.Config, dir core.IdentityDirectory) *core.Authorizer {
		return core.NewAuthorizer(cfg.GetServer().Domain, dir)
	}); err != nil {
		return nil, err
	}

	// Register delivery engine
	if err := container.Provide(func(cfg *config.Config, mbox core.MailboxStore, dir core.IdentityDirectory, logger *zap.Logger) *core.Engine {
		return core.NewEngine(mbox, dir, cfg.GetServer().Domain, logger)
	}); err != nil {
		return nil, err
	}

	// Register spam scorer
	if err := container.Provide(spam.NewScorer); err != nil {
		return nil, err
	}

	// Register SMTP listener pair
	if err := container.Provide(func(
		cfg *config.Config,
		authorizer *core.Authorizer,
		engine *core.Engine,
		scorer *spam.Scorer,
		logger *zap.Logger,
	) (*smtpd.Pair, error) {
		server := cfg.GetServer()
		smtpCfg, err := cfg.GetSMTP()
		if err != nil {
			return nil, err
		}
		tlsCfg := cfg.GetTLS()
		return smtpd.NewPair(smtpd.Config{
			Domain:            server.Domain,
			Hostname:          server.Hostname,
			InboundAddress:    smtpCfg.InboundAddress,
			SubmissionAddress: smtpCfg.SubmissionAddress,
			MaxMessageBytes:   smtpCfg.MaxMessageBytes,
			MaxRecipients:     smtpCfg.MaxRecipients,
			ReadTimeout:       smtpCfg.ReadTimeout,
			WriteTimeout:      smtpCfg.WriteTimeout,
			TLSCertFile:       tlsCfg.CertFile,
			TLSKeyFile:        tlsCfg.KeyFile,
		}, authorizer, engine, scorer, logger), nil
	}); err != nil {
		return nil, err
	}

	return container, nil
}
