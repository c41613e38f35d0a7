package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/ndrpnt/deka/internal/adapters/outbound/k8s"
	"github.com/ndrpnt/deka/internal/config"
	"github.com/ndrpnt/deka/internal/httpserver"
	"github.com/ndrpnt/deka/internal/infra/shutdown"
	"github.com/ndrpnt/deka/internal/logic/batch"
	"github.com/ndrpnt/deka/internal/manifest"
)

type App struct {
	logger       *slog.Logger
	cfg          *config.Config
	reader       *manifest.Reader
	orchestrator orchestrator
	statusServer appServer
}

// New creates a new application instance with all dependencies wired.
func New(logger *slog.Logger, cfg *config.Config) (*App, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if cfg.Kubeconfig != "" {
		loadingRules.ExplicitPath = cfg.Kubeconfig
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{},
	)

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kube config: %w", err)
	}

	// Namespace precedence: object metadata, then the -n flag, then the
	// kubeconfig current context.
	defaultNamespace := cfg.Namespace
	if defaultNamespace == "" {
		defaultNamespace, _, err = clientConfig.Namespace()
		if err != nil {
			return nil, fmt.Errorf("resolve default namespace: %w", err)
		}
	}

	dynamicClient, err := dynamic.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create dynamic client: %w", err)
	}

	discoveryClient, err := discovery.NewDiscoveryClientForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create discovery client: %w", err)
	}

	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(discoveryClient))

	// Create secondary adapter (cluster adapter)
	repo := k8s.New(logger, dynamicClient, mapper, cfg.FieldManager)

	orchestrator, err := batch.New(
		logger,
		repo,
		batch.DefaultBackoff(),
		cfg.Parallelism,
		cfg.Timeout,
	)
	if err != nil {
		return nil, fmt.Errorf("new orchestrator: %w", err)
	}

	app := &App{
		logger:       logger,
		cfg:          cfg,
		reader:       manifest.NewReader(logger, defaultNamespace),
		orchestrator: orchestrator,
	}

	if cfg.StatusPort != "" {
		app.statusServer = httpserver.New(logger, orchestrator, cfg.StatusPort)
	}

	return app, nil
}

// Run reads the manifests, applies the whole batch and returns the report.
// The returned error covers setup problems only; per-object failures are
// inside the report.
func (a *App) Run(originCtx context.Context, signals <-chan os.Signal) (batch.BatchReport, error) {
	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go shutdown.New(a.logger, signals).HandleSignals(ctx, cancel)

	objects, err := a.loadObjects()
	if err != nil {
		return batch.BatchReport{}, err
	}

	if a.statusServer != nil {
		if err := a.statusServer.Start(ctx); err != nil {
			return batch.BatchReport{}, fmt.Errorf("start status server: %w", err)
		}

		defer func() {
			if err := shutdown.GracefulShutdown(ctx, a.logger, []shutdown.Shutdowner{a.statusServer}); err != nil {
				a.logger.ErrorContext(ctx, "graceful shutdown failed", "reason", err)
			}
		}()
	}

	report := a.orchestrator.ApplyBatchCommand(ctx, objects)
	a.logFailures(ctx, report)

	return report, nil
}

func (a *App) loadObjects() ([]batch.TargetObject, error) {
	src, err := manifest.Open(a.cfg.Filename)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	objects, err := a.reader.Read(src)
	if err != nil {
		return nil, fmt.Errorf("read manifests: %w", err)
	}

	return objects, nil
}

func (a *App) logFailures(ctx context.Context, report batch.BatchReport) {
	for i := range report.Results {
		result := &report.Results[i]
		if result.Outcome.Status == batch.OutcomeSucceeded {
			continue
		}

		a.logger.ErrorContext(ctx, "object failed",
			"object", result.Object.Identity(),
			"action", string(result.Object.Action),
			"reason", string(result.Outcome.Reason),
			"attempts", result.Outcome.Attempts,
			"error", result.Outcome.Err,
		)
	}
}
