// Package main main
package main

import (
	"context"
	"fmt"

	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/config"
	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/handler"
	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/repository"
	"github.com/Davidkovel/binomoSpainGeoTtraff/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()
	cfg, err := config.NewMainConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	pool, err := dbConnection(cfg)
	if err != nil {
		logrus.Fatal(err)
	}
	defer pool.Close()

	runner := repository.NewPgxWithinTransactionRunner(pool)
	positionRepository, err := repository.NewPositionRepository(ctx, runner)
	if err != nil {
		logrus.Fatal(err)
	}
	historyRepository, err := repository.NewHistoryRepository(ctx, runner)
	if err != nil {
		logrus.Fatal(err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err = rdb.Ping(ctx).Err(); err != nil {
		logrus.Fatalf("redis not responding: %v", err)
	}
	stateCache := repository.NewStateCache(rdb)

	userService := repository.NewUserServiceRepository(cfg.UserServiceURL, cfg.UserToken)
	priceService := repository.NewPriceServiceRepository(cfg.QuoteServiceURL, cfg.PricePollInterval)

	tradingService := service.NewTrading(repository.NewOpenPositionsRepository(),
		positionRepository, historyRepository, userService, priceService, stateCache,
		repository.NewPgxTransactor(pool), cfg.DefaultPair, cfg.ReconcileInterval)

	if err = tradingService.Hydrate(ctx); err != nil {
		logrus.Fatal(err)
	}
	if err = tradingService.Restore(ctx); err != nil {
		logrus.Fatal(err)
	}
	tradingService.Run(ctx)

	router := gin.Default()
	handler.NewTrading(tradingService).Register(router)

	if err = router.Run(fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)); err != nil {
		logrus.Fatalf("error while listening server: %e", err)
	}
}

func dbConnection(cfg *config.MainConfig) (*pgxpool.Pool, error) {
	pgURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", cfg.PostgresUser, cfg.PostgresPassword,
		cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)

	pool, err := pgxpool.New(context.Background(), pgURL)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration data: %v", err)
	}
	if err = pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("database not responding: %v", err)
	}
	return pool, nil
}
