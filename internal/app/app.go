package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/cache"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/config"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/db"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/http/api/front"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/settings"
	"github.com/obeahinc-pixel/healingbudstacks-sub001/internal/walletauth"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the HTTP server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSettings := settings.RefreshDBConfigSnapshot(ctx, conn); errSettings != nil {
		log.WithError(errSettings).Warn("load settings snapshot failed")
	}

	ownCache := cache.NewOwnershipCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	oracle := walletauth.NewOracle(
		cfg.Wallet.ContractAddress,
		cfg.Wallet.RPCEndpoints,
		cfg.Wallet.FallbackWhitelist,
		ownCache,
	)

	if cleaner := walletauth.NewRetentionCleaner(conn); cleaner != nil {
		cleaner.Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", healthHandler(conn))
	front.RegisterFrontRoutes(engine, conn, cfg.JWT, cfg.Wallet, oracle)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// healthHandler reports database liveness.
func healthHandler(conn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, errDB := conn.DB()
		if errDB != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		if errPing := sqlDB.PingContext(c.Request.Context()); errPing != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
