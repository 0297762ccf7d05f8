package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cosmichub/api/internal/handlers"
	"github.com/cosmichub/api/internal/platform/analytics"
	"github.com/cosmichub/api/internal/platform/auth"
	"github.com/cosmichub/api/internal/platform/config"
	pfirestore "github.com/cosmichub/api/internal/platform/firestore"
	"github.com/cosmichub/api/internal/platform/observability"
	"github.com/cosmichub/api/internal/platform/secrets"
	"github.com/cosmichub/api/internal/repositories"
	firestoreRepo "github.com/cosmichub/api/internal/repositories/firestore"
	"github.com/cosmichub/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets("Admin.Password"),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, startedAt)

	// All mutation services tolerate nil repositories: a failed backend init
	// leaves the process serving reads of nothing and "not connected" errors
	// instead of crashing.
	var (
		firestoreProvider *pfirestore.Provider
		firestoreClient   *firestore.Client
	)
	firestoreProvider = pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err = firestoreProvider.Client(ctx)
	if err != nil {
		logger.Error("firestore init failed; running degraded", zap.Error(err))
		firestoreProvider = nil
		firestoreClient = nil
	}
	defer func() {
		if firestoreProvider == nil {
			return
		}
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var gameRepo repositories.GameRepository
	var pageRepo repositories.StaticPageRepository
	if firestoreProvider != nil {
		repo, err := firestoreRepo.NewGameRepository(firestoreProvider, cfg.Catalog.AppID)
		if err != nil {
			logger.Error("game repository init failed; running degraded", zap.Error(err))
		} else {
			gameRepo = repo
		}
		pages, err := firestoreRepo.NewStaticPageRepository(firestoreProvider, cfg.Catalog.AppID)
		if err != nil {
			logger.Error("static page repository init failed; running degraded", zap.Error(err))
		} else {
			pageRepo = pages
		}
	}

	var tokenMinter services.TokenMinter
	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Error("firebase init failed; sessions degraded", zap.Error(err))
	} else {
		tokenMinter = firebaseVerifier
	}

	notifier := services.NewNotifier(services.WithNotificationTTL(cfg.Notifications.TTL))
	adminGate := services.NewAdminGate(cfg.Admin.Password, notifier)

	gameService := services.NewGameService(services.GameServiceDeps{
		Repository: gameRepo,
		Notifier:   notifier,
		Clock:      time.Now,
	})
	pageService := services.NewPageService(services.PageServiceDeps{
		Repository: pageRepo,
		Notifier:   notifier,
	})
	sessionService := services.NewSessionService(services.SessionServiceDeps{
		Minter:           tokenMinter,
		InitialAuthToken: cfg.Session.InitialAuthToken,
	})

	feed := services.NewCatalogFeed(services.CatalogFeedDeps{
		Repository: gameRepo,
		Notifier:   notifier,
		Logger:     logger.Named("feed"),
	})
	if err := feed.Start(ctx); err != nil {
		logger.Warn("catalog feed not started", zap.Error(err))
	}
	defer feed.Release()

	analyticsClient := analytics.NewClient(analytics.Options{
		MeasurementID: cfg.Analytics.MeasurementID,
		APISecret:     cfg.Analytics.APISecret,
		Endpoint:      cfg.Analytics.Endpoint,
		Logger:        logger.Named("analytics"),
	})
	if !analyticsClient.Enabled() {
		logger.Info("analytics disabled; no measurement credentials configured")
	}

	systemService, err := newSystemService(firestoreClient, fetcher, buildInfo)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}
	if firebaseVerifier != nil {
		authenticator := auth.NewAuthenticator(firebaseVerifier)
		middlewares = append(middlewares, authenticator.OptionalFirebaseAuth())
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(systemService),
	)

	gameHandlers := handlers.NewGameHandlers(
		handlers.WithGameFeed(feed),
		handlers.WithGameService(gameService),
		handlers.WithGameAnalytics(analyticsClient),
		handlers.WithGameRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		handlers.WithFeaturedSize(cfg.Catalog.FeaturedSize),
	)
	pageHandlers := handlers.NewPageHandlers(
		handlers.WithPageService(pageService),
		handlers.WithPageAnalytics(analyticsClient),
	)
	sessionHandlers := handlers.NewSessionHandlers(
		handlers.WithSessionService(sessionService),
		handlers.WithSessionAnalytics(analyticsClient),
	)
	notificationHandlers := handlers.NewNotificationHandlers(notifier)
	adminHandlers := handlers.NewAdminHandlers(
		handlers.WithAdminGate(adminGate),
		handlers.WithAdminGameService(gameService),
		handlers.WithAdminPageService(pageService),
		handlers.WithAdminFeed(feed),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithGameRoutes(gameHandlers.Routes),
		handlers.WithPageRoutes(pageHandlers.Routes),
		handlers.WithSessionRoutes(sessionHandlers.Routes),
		handlers.WithNotificationRoutes(notificationHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("cosmichub api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["API_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(env["API_ENVIRONMENT"])
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSystemService(client *firestore.Client, fetcher *secrets.Fetcher, build services.BuildInfo) (services.SystemService, error) {
	checks := make([]repositories.DependencyCheck, 0, 2)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if fetcher != nil {
		const secretHealthReference = "secret://system/healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name:    "secretManager",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil {
					return nil
				}
				if st, ok := status.FromError(err); ok {
					switch st.Code() {
					case codes.NotFound:
						return nil
					}
				}
				return err
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: repo,
		Clock:            time.Now,
		Build:            build,
	})
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		if value, ok := env[key]; ok {
			return strings.TrimSpace(value)
		}
		return ""
	}

	envLabel := strings.ToLower(lookup("API_ENVIRONMENT"))
	if envLabel == "" {
		envLabel = "local"
	}
	projectMap := secretProjectMapFromEnv(env)
	defaultProject := lookup("API_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithEnvironment(envLabel),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if len(projectMap) > 0 {
		opts = append(opts, secrets.WithProjectMap(projectMap))
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}

func secretProjectMapFromEnv(env map[string]string) map[string]string {
	raw := ""
	if env != nil {
		raw = env["API_SECRET_PROJECT_IDS"]
	}
	raw = strings.TrimSpace(raw)
	projects := make(map[string]string)
	if raw == "" {
		return projects
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		envLabel := strings.ToLower(strings.TrimSpace(parts[0]))
		project := strings.TrimSpace(parts[1])
		if envLabel == "" || project == "" {
			continue
		}
		projects[envLabel] = project
	}
	return projects
}
