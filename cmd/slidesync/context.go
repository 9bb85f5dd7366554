package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"slidesync/internal/config"
	"slidesync/internal/logging"
	"slidesync/internal/media/ffmpeg"
	"slidesync/internal/mixing"
	"slidesync/internal/queue"
	"slidesync/internal/slides"
	"slidesync/internal/stitching"
	"slidesync/internal/timing"
	"slidesync/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "slidesync.log")},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// withStore opens the queue store for the duration of one command.
func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// newManager wires the full stage set against one engine and store.
func (c *commandContext) newManager(cfg *config.Config, store *queue.Store) (*workflow.Manager, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	engine := ffmpeg.New(cfg, logger)
	set := workflow.StageSet{
		Detector:  slides.NewDetector(cfg, store, engine, logger),
		Retimer:   timing.NewRetimer(cfg, store, logger),
		Dubber:    mixing.NewDubber(cfg, store, engine, logger),
		Assembler: stitching.NewAssembler(cfg, store, engine, logger),
	}
	return workflow.NewManager(cfg, store, logger, set), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
