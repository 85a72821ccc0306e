package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/gamelobby/internal/auth"
	"github.com/hitoshi/gamelobby/internal/cache"
	"github.com/hitoshi/gamelobby/internal/config"
	"github.com/hitoshi/gamelobby/internal/database"
	"github.com/hitoshi/gamelobby/internal/favorite"
	"github.com/hitoshi/gamelobby/internal/game"
	"github.com/hitoshi/gamelobby/internal/handler"
	"github.com/hitoshi/gamelobby/internal/logger"
	"github.com/hitoshi/gamelobby/internal/metrics"
	"github.com/hitoshi/gamelobby/internal/middleware"
	"github.com/hitoshi/gamelobby/internal/repository"
	"github.com/hitoshi/gamelobby/internal/security"
	"github.com/hitoshi/gamelobby/internal/validation"
)

// shutdownTimeout はグレースフルシャットダウンの待ち時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定に従ってログレベルを反映する
	logger.SetLevel(cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	if cmd == CommandHelp {
		writeUsage(w)
		return nil
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "5000"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("env", cfg.AppEnv),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase は設定に従ってコネクションプールを構成し、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxConnections,
		MaxIdleConns:    cfg.DBMaxConnections,
		ConnMaxIdleTime: cfg.DBIdleTimeout,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// components はserveモードで組み立てた依存関係を保持する。
type components struct {
	router      http.Handler
	rateLimiter *middleware.RateLimiter
	cache       *cache.GameListCache // キャッシュ無効時はnil
}

// close はバックグラウンド処理と外部接続を解放する。
func (c *components) close() {
	c.rateLimiter.Stop()
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			slog.Warn("failed to close game cache", slog.String("error", err.Error()))
		}
	}
}

// buildComponents はリポジトリ・サービス・ルーターを組み立てる。
// DBへの接続確認は呼び出し側で行う。
func buildComponents(cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (*components, error) {
	// 1. メトリクス
	collector := metrics.NewCollector(reg)

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	gameRepo := repository.NewPostgresGameRepo(db)
	favRepo := repository.NewPostgresFavoriteRepo(db)

	// 3. 共通サービスの初期化
	sanitizer := security.NewInputSanitizer()
	validator := validation.New()
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiresIn)

	// 4. ドメインサービスの初期化
	authService, err := auth.NewService(userRepo, hasher, tokens, validator, sanitizer, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth service: %w", err)
	}

	c := &components{}
	var pageCache game.PageCache
	var cachePinger handler.Pinger
	if cfg.CacheEnabled() {
		c.cache = cache.NewGameListCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.GameCacheTTL)
		pageCache = c.cache
		cachePinger = handler.PingerFunc(c.cache.Ping)
		slog.Info("game list cache enabled",
			slog.String("redis_addr", cfg.RedisAddr),
			slog.Duration("ttl", cfg.GameCacheTTL),
		)
	}
	gameService := game.NewService(gameRepo, sanitizer, pageCache).WithCacheRecorder(collector)
	favoriteService := favorite.NewService(favRepo, collector)

	// 5. ルーターの構築（レート制限の設定値はreq/min）
	c.rateLimiter = middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)

	c.router = handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:     tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       c.rateLimiter,
		HSTS:              cfg.IsProduction(),
		TrustProxy:        cfg.IsProduction(),

		HTTPRecorder:   collector,
		MetricsHandler: metrics.Handler(reg),
		DatabasePinger: db,
		CachePinger:    cachePinger,

		AuthService:     authService,
		GameService:     gameService,
		FavoriteService: favoriteService,
	})

	return c, nil
}

// newRegistry はアプリケーション用のPrometheusレジストリを生成する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. 依存関係の組み立て
	comps, err := buildComponents(cfg, db, newRegistry())
	if err != nil {
		return err
	}
	defer comps.close()

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           comps.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	endpoint := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(endpoint)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できない場合は全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
