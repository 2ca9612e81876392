package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
	crwebhook "sigs.k8s.io/controller-runtime/pkg/webhook"

	"ftoperator/pkg/adapters/webhooks"
	"ftoperator/pkg/config"
	"ftoperator/pkg/controllers/bot"
	"ftoperator/pkg/planner"
)

func newControllerCommand() *cobra.Command {
	zapOptions := zap.Options{Development: true, TimeEncoder: zapcore.ISO8601TimeEncoder}

	cmd := &cobra.Command{
		Use:   "controller",
		Short: "Run the Bot controller manager",
		Long: `Run the controller manager that reconciles Bot resources.

Settings are layered: built-in defaults, then the YAML file named by --config,
then FT_OPERATOR_* environment variables, then explicitly set flags.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl.SetLogger(zap.New(zap.UseFlagOptions(&zapOptions)))

			cfg, err := config.Load(cmd.Flags(), os.LookupEnv)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runController(cmd, cfg)
		},
	}

	config.BindFlags(cmd.Flags())
	goFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	zapOptions.BindFlags(goFlags)
	cmd.Flags().AddGoFlagSet(goFlags)
	return cmd
}

func runController(cmd *cobra.Command, cfg config.Config) error {
	managerOptions := ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: cfg.MetricsBindAddress,
		},
		HealthProbeBindAddress: cfg.HealthProbeBindAddress,
		LeaderElection:         cfg.LeaderElect,
		LeaderElectionID:       cfg.LeaderElectionID,
		WebhookServer:          crwebhook.NewServer(crwebhook.Options{Port: cfg.WebhookPort}),
	}
	if cfg.WatchNamespace != "" {
		managerOptions.Cache = cache.Options{DefaultNamespaces: map[string]cache.Config{cfg.WatchNamespace: {}}}
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), managerOptions)
	if err != nil {
		setupLog.Error(err, "unable to start manager")
		return err
	}

	ctx := ctrl.SetupSignalHandler()
	if err := bot.SetupWithManager(ctx, mgr, controllerOptions(cfg)); err != nil {
		setupLog.Error(err, "unable to create controller", "controller", "Bot")
		return err
	}

	if cfg.EnableWebhooks {
		webhooks.SetupWithManager(mgr)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up health check")
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		setupLog.Error(err, "unable to set up ready check")
		return err
	}

	setupLog.Info("starting manager", "workers", cfg.Workers, "webhooks", cfg.EnableWebhooks, "namespace", cfg.WatchNamespace)
	if err := mgr.Start(ctx); err != nil {
		setupLog.Error(err, "problem running manager")
		return err
	}
	return nil
}

func controllerOptions(cfg config.Config) bot.ControllerOptions {
	options := bot.DefaultControllerOptions()
	options.Workers = cfg.Workers
	options.RequestTimeout = cfg.RequestTimeout
	options.RetryBaseDelay = cfg.RetryBaseDelay
	options.RetryMaxDelay = cfg.RetryMaxDelay
	options.QPS = cfg.QPS
	options.Burst = cfg.Burst
	options.Reconciler.ResyncPeriod = cfg.ResyncPeriod
	options.Reconciler.PermanentRequeue = cfg.PermanentRequeue
	options.Reconciler.Planner = planner.Options{
		DefaultImageRepository: cfg.ImageRepository,
		DefaultImageTag:        cfg.ImageTag,
	}
	return options
}
