package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"teamdesk/internal/config"
	"teamdesk/internal/journal"
	"teamdesk/internal/logging"
	"teamdesk/internal/teamdesk"
)

var errJournalDisabled = errors.New("journal disabled; set journal.enabled = true to record calls")

type commandContext struct {
	configFlag *string
	outputFlag *string
	debugFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, outputFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		outputFlag: outputFlag,
		debugFlag:  debugFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) debug() bool {
	return c.debugFlag != nil && *c.debugFlag
}

// withClient builds a client from the loaded config, runs fn, and tears the
// client down. With --debug the raw exchange of a failed call goes to stderr.
func (c *commandContext) withClient(cmd *cobra.Command, fn func(context.Context, *teamdesk.Client) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	opts := []teamdesk.Option{teamdesk.WithLogger(logger)}
	if c.debug() {
		opts = append(opts, teamdesk.WithDebugCapture(true))
	}
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Path, journal.WithLogger(logger))
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.PruneRetention(ctx, cfg.Journal.RetentionDays, time.Now()); err != nil {
			logger.Warn("journal prune failed", logging.Error(err))
		}
		opts = append(opts, teamdesk.WithObserver(store))
	}

	client, err := teamdesk.NewFromConfig(cfg, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	runErr := fn(ctx, client)
	if runErr != nil && (c.debug() || cfg.Debug.CaptureExchanges) {
		printExchange(cmd, client)
	}
	return runErr
}

func (c *commandContext) withJournal(fn func(*journal.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return errJournalDisabled
	}
	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func printExchange(cmd *cobra.Command, client *teamdesk.Client) {
	request, response := client.LastExchange()
	if len(request) == 0 && len(response) == 0 {
		return
	}
	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(errOut, "--- last request ---")
	fmt.Fprintln(errOut, string(request))
	fmt.Fprintln(errOut, "--- last response ---")
	fmt.Fprintln(errOut, string(response))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
