package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/blueberrycongee/copydesk/internal/api"
	"github.com/blueberrycongee/copydesk/internal/config"
	"github.com/blueberrycongee/copydesk/internal/copywriter"
	"github.com/blueberrycongee/copydesk/internal/credential"
	"github.com/blueberrycongee/copydesk/internal/critic"
	"github.com/blueberrycongee/copydesk/internal/gate"
	"github.com/blueberrycongee/copydesk/internal/generation"
	"github.com/blueberrycongee/copydesk/internal/observability"
	"github.com/blueberrycongee/copydesk/internal/provider"
	"github.com/blueberrycongee/copydesk/internal/provider/anthropic"
	"github.com/blueberrycongee/copydesk/internal/provider/gemini"
	"github.com/blueberrycongee/copydesk/internal/provider/openai"
	"github.com/blueberrycongee/copydesk/internal/review"
	"github.com/blueberrycongee/copydesk/internal/router"
	"github.com/blueberrycongee/copydesk/internal/secret"
	"github.com/blueberrycongee/copydesk/internal/secret/env"
	"github.com/blueberrycongee/copydesk/internal/secret/vault"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

// contentRoutes are labelled individually in HTTP metrics.
var contentRoutes = []string{"/generate-copy", "/critic-copy", "/generate-visual-json"}

// app owns everything built from configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	handler  http.Handler
	gate     *gate.Gate
	ready    []api.ReadinessCheck
	closers  []func() error
	stopPool func()
}

func (a *app) close() {
	if a.stopPool != nil {
		a.stopPool()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// serve runs the server until ctx is done.
func serve(ctx context.Context, configPath string, stdout io.Writer) error {
	bootstrap, err := config.LoadFromFile(configPath)
	if err != nil {
		return err
	}

	logger, logCloser, err := observability.NewLogger(logConfig(bootstrap.Logging), stdout)
	if err != nil {
		return err
	}
	defer logCloser.Close() //nolint:errcheck // best effort on exit
	slog.SetDefault(logger)

	manager, err := config.NewManager(configPath, logger)
	if err != nil {
		return err
	}
	defer manager.Close() //nolint:errcheck // best effort on exit
	cfg := manager.Get()

	logger.Info("starting copydesk", "version", version, "config", manager.Status().Path)

	tp, err := observability.InitTracing(ctx, tracingConfig(cfg.Tracing))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx) //nolint:errcheck // best effort on exit
	}()

	a, err := buildApp(ctx, cfg, func() time.Duration { return manager.Get().Content.ReviewTimeout }, logger)
	if err != nil {
		return err
	}
	defer a.close()

	manager.OnChange(func(next *config.Config) {
		applyRuntimeConfig(a.gate, next, logger)
	})
	if err := manager.Watch(ctx); err != nil {
		logger.Warn("config hot-reload disabled", "error", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

// buildApp wires the pipeline from cfg. reviewTimeout is read per review so
// it follows config reloads.
func buildApp(ctx context.Context, cfg *config.Config, reviewTimeout func() time.Duration, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	secrets := secret.NewManager(cfg.Secrets.CacheTTL)
	secrets.Register("env", env.New())
	if cfg.Secrets.Vault.Enabled {
		v, err := vault.New(vaultConfig(cfg.Secrets.Vault), logger)
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}
		secrets.Register("vault", v)
	}
	a.closers = append(a.closers, secrets.Close)

	defaults, err := resolveProviderKeys(ctx, secrets, cfg.Providers, logger)
	if err != nil {
		return nil, err
	}

	store, err := buildCredentialStore(ctx, a, cfg.Credentials)
	if err != nil {
		return nil, err
	}
	keys := credential.NewResolver(store, defaults, credential.ResolverOptions{
		CacheTTL: cfg.Credentials.CacheTTL,
		Logger:   logger,
	})

	registry := provider.NewRegistry()
	registry.RegisterFactory("openai", openai.New)
	registry.RegisterFactory("anthropic", anthropic.New)
	registry.RegisterFactory("gemini", gemini.New)

	rt, err := router.New(routerConfig(cfg), keys, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("router: %w", err)
	}
	for slot := range cfg.Providers {
		if !keys.HasDefault(credential.Provider(slot)) {
			logger.Warn("no operator key for slot; workspaces must bring their own", "slot", slot)
		}
	}

	gen := generation.New(generation.Options{
		AttemptTimeout: cfg.Generation.AttemptTimeout,
		Logger:         logger,
	})
	writer := copywriter.NewWriter(rt, gen, copywriter.Options{
		Language: cfg.Content.Language,
		Brands:   copywriter.StaticBrand{Default: cfg.Content.BrandTone, PerWorkspace: cfg.Content.BrandTones},
		Patterns: staticPatterns(cfg.Content.Patterns),
		Logger:   logger,
	})

	authn, err := buildAuthenticator(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}
	limiter, err := buildLimiter(a, cfg.RateLimit)
	if err != nil {
		return nil, err
	}
	a.gate = gate.New(gate.Options{
		Authenticator: authn,
		Limiter:       limiter,
		Policies:      policies(cfg.RateLimit.Policies),
		FailOpen:      cfg.RateLimit.FailOpen,
		MaxBodyBytes:  cfg.Server.MaxBodyBytes,
		Logger:        logger,
	})

	h := api.NewHandler(api.Deps{
		Gate:     a.gate,
		Writer:   writer,
		Critic:   critic.NewEvaluator(rt, gen, logger),
		Reviewer: review.New(rt, gen, reviewTimeout, logger),
		Logger:   logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, a.ready...)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}
	mux.HandleFunc("/", h.NotFound)

	a.handler = buildMiddlewareStack(cfg)(mux)
	ok = true
	return a, nil
}

// resolveProviderKeys resolves the operator default key of every slot. A
// reference to a secret that does not exist leaves the slot without a
// default, so requests fail with NoKeyConfigured unless the workspace has
// its own key. Backend failures stop startup.
func resolveProviderKeys(ctx context.Context, secrets *secret.Manager, providers map[string]config.ProviderConfig, logger *slog.Logger) (credential.Defaults, error) {
	refs := make(map[string]string, len(providers))
	for slot, p := range providers {
		refs[slot] = p.APIKey
	}
	values, missing, err := secrets.ResolveAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("resolve provider keys: %w", err)
	}
	for _, slot := range missing {
		logger.Warn("operator key reference does not resolve", "slot", slot, "reference", refScheme(refs[slot]))
	}
	defaults := make(credential.Defaults, len(values))
	for slot, v := range values {
		defaults[credential.Provider(slot)] = v
	}
	return defaults, nil
}

// refScheme returns the scheme of a secret reference for logging.
func refScheme(ref string) string {
	scheme, _, _ := strings.Cut(ref, "://")
	return scheme + "://"
}

// buildCredentialStore returns the workspace key store: Postgres when a DSN
// is configured, otherwise an empty in-process store.
func buildCredentialStore(ctx context.Context, a *app, cfg config.CredentialsConfig) (credential.Store, error) {
	if cfg.Postgres.DSN == "" {
		a.logger.Info("workspace keys disabled: no credentials database configured")
		return credential.NewMemoryStore(), nil
	}

	cipher, err := credential.NewSecretCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("credential cipher: %w", err)
	}
	pg, err := credential.NewPostgresStore(&credential.PostgresConfig{
		DSN:          cfg.Postgres.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
		MaxIdleConns: cfg.Postgres.MaxIdleConns,
		ConnLifetime: cfg.Postgres.ConnLifetime,
	}, cipher)
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}
	a.closers = append(a.closers, pg.Close)
	a.ready = append(a.ready, pg.Ping)
	a.stopPool = pg.WatchPool(ctx, 30*time.Second)
	return pg, nil
}

func buildAuthenticator(ctx context.Context, cfg config.AuthConfig) (gate.Authenticator, error) {
	var chain gate.Chain
	if cfg.JWT.Secret != "" {
		j, err := gate.NewJWTAuthenticator(gate.JWTConfig{
			Secret:    cfg.JWT.Secret,
			Issuer:    cfg.JWT.Issuer,
			Audience:  cfg.JWT.Audience,
			ClockSkew: cfg.JWT.ClockSkew,
		})
		if err != nil {
			return nil, fmt.Errorf("jwt: %w", err)
		}
		chain = append(chain, j)
	}
	if cfg.OIDC.IssuerURL != "" {
		o, err := gate.NewOIDCAuthenticator(ctx, gate.OIDCConfig{
			IssuerURL:      cfg.OIDC.IssuerURL,
			ClientID:       cfg.OIDC.ClientID,
			WorkspaceClaim: cfg.OIDC.WorkspaceClaim,
			AdminGroup:     cfg.OIDC.AdminGroup,
		})
		if err != nil {
			return nil, err
		}
		chain = append(chain, o)
	}
	if len(chain) == 0 {
		return nil, errors.New("no authenticator configured")
	}
	return chain, nil
}

// routerConfig builds the routing table. Configured task routes replace the
// defaults task by task.
func routerConfig(cfg *config.Config) router.Config {
	rc := router.Config{
		Slots: make(map[credential.Provider]router.SlotConfig, len(cfg.Providers)),
		Tasks: router.DefaultTasks(),
	}
	for slot, p := range cfg.Providers {
		rc.Slots[credential.Provider(slot)] = router.SlotConfig{
			Vendor:    p.Vendor,
			Model:     p.Model,
			BaseURL:   p.BaseURL,
			MaxTokens: p.MaxTokens,
			Timeout:   p.Timeout,
		}
	}
	for task, tr := range cfg.Tasks {
		rc.Tasks[types.Task(task)] = router.TaskRoute{
			Primary:  credential.Provider(tr.Primary),
			Fallback: credential.Provider(tr.Fallback),
		}
	}
	// Drop routes whose primary slot is not configured.
	for task, tr := range rc.Tasks {
		if _, ok := rc.Slots[tr.Primary]; !ok {
			delete(rc.Tasks, task)
		}
	}
	return rc
}

func policies(cfg map[string]config.PolicyConfig) map[string]gate.Policy {
	out := gate.DefaultPolicies()
	for name, p := range cfg {
		out[name] = gate.Policy{Name: name, Limit: p.Limit, Window: p.Window}
	}
	return out
}

// applyRuntimeConfig pushes the reloadable settings into the gate.
func applyRuntimeConfig(g *gate.Gate, cfg *config.Config, logger *slog.Logger) {
	g.SetPolicies(policies(cfg.RateLimit.Policies))
	g.SetFailOpen(cfg.RateLimit.FailOpen)
	logger.Info("runtime settings applied",
		"fail_open", cfg.RateLimit.FailOpen,
		"review_timeout", cfg.Content.ReviewTimeout,
	)
}

func staticPatterns(cfg []config.PatternConfig) copywriter.StaticPatterns {
	items := make([]copywriter.StaticPattern, 0, len(cfg))
	for _, p := range cfg {
		items = append(items, copywriter.StaticPattern{
			Pattern: types.Pattern{Kind: p.Kind, Text: p.Text},
			Bucket:  p.Bucket,
		})
	}
	return copywriter.StaticPatterns{Items: items}
}

func logConfig(cfg config.LoggingConfig) observability.LogConfig {
	return observability.LogConfig{
		Level:      cfg.Level,
		Format:     cfg.Format,
		File:       cfg.File,
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	}
}

func tracingConfig(cfg config.TracingConfig) observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     cfg.Enabled,
		Endpoint:    cfg.Endpoint,
		ServiceName: cfg.ServiceName,
		SampleRate:  cfg.SampleRate,
		Insecure:    cfg.Insecure,
	}
}

func vaultConfig(cfg config.VaultConfig) vault.Config {
	return vault.Config{
		Address:    cfg.Address,
		AuthMethod: cfg.AuthMethod,
		Token:      cfg.Token,
		RoleID:     cfg.RoleID,
		SecretID:   cfg.SecretID,
		CACert:     cfg.CACert,
		ClientCert: cfg.ClientCert,
		ClientKey:  cfg.ClientKey,
	}
}
