package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"airmatch/internal/config"
	"airmatch/internal/logging"
	"airmatch/internal/recon"
	"airmatch/internal/store"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			defaultPath, err := config.DefaultConfigPath()
			if err != nil {
				c.configErr = err
				return
			}
			path = defaultPath
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// withStore opens the database for one command invocation.
func (c *commandContext) withStore(cmd *cobra.Command, fn func(ctx context.Context, cfg *config.Config, st *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cmd.Context(), cfg, st)
}

// withService opens the database and wires the full service facade.
func (c *commandContext) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *recon.Service, st *store.Store) error) error {
	return c.withStore(cmd, func(ctx context.Context, cfg *config.Config, st *store.Store) error {
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
		})
		if err != nil {
			return err
		}
		svc := recon.NewService(cfg, st, logger)
		defer svc.Shutdown()
		return fn(ctx, svc, st)
	})
}
