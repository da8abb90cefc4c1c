package cmd

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/bnema/streamguard/internal/adapters/config"
	"github.com/bnema/streamguard/internal/adapters/mediaserver/tautulli"
	"github.com/bnema/streamguard/internal/adapters/render/activity"
	"github.com/bnema/streamguard/internal/adapters/secrets"
	"github.com/bnema/streamguard/internal/application"
	"github.com/bnema/streamguard/internal/domain"
	"github.com/bnema/streamguard/internal/ports"
)

type app struct {
	cfg      config.Config
	logger   *slog.Logger
	servers  []ports.MediaServer
	active   []config.Server
	skipped  []skippedServer
	policy   domain.Policy
	renderer func(application.CycleReport, activity.RenderOptions) (string, error)
}

type skippedServer struct {
	server config.Server
	reason string
}

func wireApp() (*app, error) {
	cfg, err := config.Load(viper.New())
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	httpClient := &http.Client{Timeout: 30 * time.Second}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		policy:   domain.NewPolicy(cfg.MaxStreams, cfg.ExemptUsers),
		renderer: activity.Render,
	}

	for _, server := range cfg.Servers {
		apiKey, err := secrets.Resolve(server.APIKey)
		if err != nil {
			logger.Warn("server credential unresolved, skipping", "server", server.Name, "error", err)
			a.skipped = append(a.skipped, skippedServer{server: server, reason: err.Error()})
			continue
		}

		resolved := config.Server{Name: server.Name, URL: server.URL, APIKey: apiKey}
		if !resolved.Configured() {
			logger.Info("server not configured, skipping", "server", server.Name)
			a.skipped = append(a.skipped, skippedServer{server: server, reason: "missing url or api key"})
			continue
		}

		a.active = append(a.active, server)
		a.servers = append(a.servers, tautulli.New(server.Name, server.URL, apiKey, httpClient))
	}

	return a, nil
}

func (a *app) newEnforcer(dryRun bool) *application.Enforcer {
	return application.NewEnforcer(a.servers, a.policy, a.logger, ports.SystemClock{}, application.Options{
		FetchFanout:    a.cfg.FetchFanout,
		TerminateRate:  rate.Limit(a.cfg.TerminateRate),
		TerminateBurst: a.cfg.TerminateBurst,
		DryRun:         dryRun,
	})
}
