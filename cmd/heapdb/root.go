package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bietkhonhungvandi212/heapdb/internal/config"
	"github.com/bietkhonhungvandi212/heapdb/internal/engine"
	"github.com/bietkhonhungvandi212/heapdb/internal/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:               "heapdb",
		Short:             "A page-locked heap store",
		Long:              "heapdb stores fixed-size tuples in heap files behind a transactional buffer pool.",
		SilenceUsage:      true,
		PersistentPreRunE: rootPreRun,
	}

	configFile  string
	dataDir     string
	logLevel    = "info"
	logFile     string
	pages       int
	lockTimeout time.Duration

	db        *engine.Database
	logger    *logrus.Logger
	logCloser io.Closer
)

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVar(&configFile, "config", "", "ini `file` to load options from")
	fs.StringVar(&dataDir, "data", "", "data `dir` holding table files and the log")
	fs.StringVar(&logLevel, "log-level", logLevel, "log level: trace, debug, info, warn, error")
	fs.StringVar(&logFile, "log-file", "", "append logs to `file` instead of stderr")
	fs.IntVar(&pages, "pages", 0, "buffer pool capacity in pages")
	fs.DurationVar(&lockTimeout, "lock-timeout", 0, "how long to wait for a page lock")
}

// options layers the flags that were set on top of the config file.
func options(cmd *cobra.Command) (*config.Options, error) {
	opts := config.Default()
	if configFile != "" {
		var err error
		if opts, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}

	cmd.Flags().Visit(func(flg *pflag.Flag) {
		switch flg.Name {
		case "data":
			opts.DataDir = dataDir
		case "log-level":
			opts.LogLevel = logLevel
		case "log-file":
			opts.LogFile = logFile
		case "pages":
			opts.BufferPages = pages
		case "lock-timeout":
			opts.LockTimeout = lockTimeout
		}
	})
	return opts, opts.Validate()
}

func rootPreRun(cmd *cobra.Command, args []string) error {
	opts, err := options(cmd)
	if err != nil {
		return fmt.Errorf("heapdb: %w", err)
	}

	logger, logCloser, err = logging.New(opts.LogLevel, opts.LogFile)
	if err != nil {
		return fmt.Errorf("heapdb: %w", err)
	}

	db, err = engine.Open(opts, logger)
	if err != nil {
		return fmt.Errorf("heapdb: %w", err)
	}
	return nil
}

// shutdown runs after every command, including failed ones.
func shutdown() {
	if db != nil {
		db.Close()
		db = nil
	}
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}
