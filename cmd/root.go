// Package cmd implements the shaclreport command line.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/duynguyendang/shaclreport/internal/config"
	"github.com/duynguyendang/shaclreport/internal/manager"
	"github.com/duynguyendang/shaclreport/internal/observability"
	"github.com/duynguyendang/shaclreport/pkg/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time.
var Version = "dev"

// app carries what the root command prepared for its subcommands.
type app struct {
	cfgFile   string
	dataDir   string
	logLevel  string
	logFormat string
	lowMem    bool

	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Collector
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "shaclreport",
		Short:         "Load SHACL validation reports and render them as readable tables.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")
	flags.StringVar(&a.dataDir, "data-dir", "", "directory holding the datasets")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	flags.BoolVar(&a.lowMem, "low-mem", false, "optimize stores for low-memory environments")

	root.AddCommand(
		newLoadCmd(a),
		newQueryCmd(a),
		newReportCmd(a),
		newGraphCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newReplCmd(a),
		newDatasetsCmd(a),
	)
	return root
}

// init loads the configuration, applies flag overrides and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("low-mem") {
		cfg.Store.LowMemory = a.lowMem
	}
	// Only serve owns stdout; everything else prints results there.
	if cmd.Name() != "serve" {
		cfg.Log.Output = "stderr"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = observability.InitializeLogger(cfg.Log)
	a.metrics = observability.NewCollector()
	a.logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("dataDir", cfg.DataDir),
	)
	return nil
}

// openService opens the dataset manager and the report service on top of it.
// The returned function closes every open store.
func (a *app) openService() (*service.ReportService, func(), error) {
	profile := manager.MemoryProfileDefault
	if a.cfg.Store.LowMemory {
		profile = manager.MemoryProfileLow
	}

	mgr, err := manager.NewStoreManager(a.cfg.DataDir, manager.Options{
		MaxOpenStores: a.cfg.Store.MaxOpenStores,
		Profile:       profile,
		StoreProfile:  a.cfg.Store.Profile,
		ReadOnly:      a.cfg.Store.ReadOnly,
	})
	if err != nil {
		return nil, nil, err
	}

	svc, err := service.NewReportService(mgr, service.Options{
		ResultPredicate: a.cfg.Report.ResultPredicate,
		Report:          a.cfg.Report.ReportSettings(),
		DisplayLimit:    a.cfg.Report.DisplayLimit,
		BatchSize:       a.cfg.Report.BatchSize,
	}, a.metrics)
	if err != nil {
		mgr.CloseAll()
		return nil, nil, err
	}
	return svc, mgr.CloseAll, nil
}

// Execute runs the command line with ctx, which is cancelled on shutdown signals.
func Execute(ctx context.Context) error {
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if ctx.Err() == nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}
