package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tempo/internal/collection"
	"tempo/internal/config"
	"tempo/internal/ledger"
	"tempo/internal/logging"
	"tempo/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.flagPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) flagPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// log returns the command logger. Construction failures fall back to a no-op
// logger so a bad log_dir never blocks a command.
func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		c.logger = logging.NewNop()
		cfg, err := c.ensureConfig()
		if err != nil {
			return
		}
		if logger, err := logging.NewFromConfig(cfg); err == nil {
			c.logger = logger
		}
	})
	return c.logger
}

func (c *commandContext) withCollection(cmd *cobra.Command, fn func(*collection.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := collection.Open(cmd.Context(), cfg.CollectionPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) withLedgers(cmd *cobra.Command, fn func(*ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cmd.Context(), cfg.LedgerPath())
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// withSession opens both databases and a workflow session for the duration
// of fn.
func (c *commandContext) withSession(cmd *cobra.Command, fn func(*workflow.Session, *collection.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	return c.withCollection(cmd, func(store *collection.Store) error {
		return c.withLedgers(cmd, func(ledgers *ledger.Store) error {
			session, err := workflow.Open(cmd.Context(), cfg, store, ledgers, workflow.WithLogger(c.log()))
			if err != nil {
				return err
			}
			defer session.Close()
			return fn(session, store)
		})
	})
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
