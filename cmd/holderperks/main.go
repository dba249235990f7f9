package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Solstice-Labs/HolderPerks/internal/auth"
	"github.com/Solstice-Labs/HolderPerks/internal/config"
	"github.com/Solstice-Labs/HolderPerks/internal/ledger"
	"github.com/Solstice-Labs/HolderPerks/internal/models"
	"github.com/Solstice-Labs/HolderPerks/internal/oracle"
	"github.com/Solstice-Labs/HolderPerks/internal/scheduler"
	"github.com/Solstice-Labs/HolderPerks/internal/server"
	"github.com/Solstice-Labs/HolderPerks/internal/solana"
	"github.com/Solstice-Labs/HolderPerks/internal/utils"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		utils.GetLogger().Fatalf("Failed to load config: %v", err)
	}

	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	logger := utils.GetLogger()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatalf("Failed to get database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	err = db.AutoMigrate(
		&models.Account{},
		&models.RewardClaim{},
		&models.SpinRecord{},
		&models.Challenge{},
		&models.Session{},
	)
	if err != nil {
		logger.Fatalf("Failed to migrate database schema: %v", err)
	}

	das := oracle.NewDASClient(cfg.DASEndpoint, cfg.CollectionMint)
	store := ledger.NewGormStore(db)
	ldg := ledger.NewLedger(store, das)
	wheel := ledger.NewWheel(store)
	authSvc := auth.NewService(auth.NewGormStore(db))

	refresher := scheduler.NewRefreshScheduler(ldg, store)
	if err := refresher.Start(); err != nil {
		logger.Fatalf("Failed to start refresh scheduler: %v", err)
	}
	defer refresher.Stop()

	if cfg.SolanaWSEndpoint != "" {
		listener, err := solana.NewListener(cfg.SolanaWSEndpoint, cfg.CollectionMint, refresher.Kick)
		if err != nil {
			logger.Fatalf("Failed to connect to Solana websocket: %v", err)
		}
		go func() {
			logger.Info("Watching collection activity...")
			listener.Run()
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		router := server.NewRouter(authSvc, ldg, wheel, store, cfg.AllowedOrigins)
		logger.Infof("Starting API server on %s", cfg.ListenAddr)
		if err := router.Run(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to run API server: %v", err)
		}
	}()

	<-stop

	logger.Info("Shutting down...")
	sqlDB.Close()
}
