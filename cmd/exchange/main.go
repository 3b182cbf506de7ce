package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rwalabs/rwa-exchange/config"
	"github.com/rwalabs/rwa-exchange/pkg/exchange"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/eventstore"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/repo"
	"github.com/rwalabs/rwa-exchange/pkg/exchange/worker"
	postgres_wrapper "github.com/rwalabs/rwa-exchange/pkg/infra/postgres"
	redis_wrapper "github.com/rwalabs/rwa-exchange/pkg/infra/redis"
	"github.com/rwalabs/rwa-exchange/pkg/logging"
	"github.com/rwalabs/rwa-exchange/pkg/marketdata"
	"github.com/rwalabs/rwa-exchange/pkg/oracle"
)

func main() {
	configFile := flag.String("config", "./config/config.yaml", "path to config file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	log := logging.NewLogger(logging.INFO)
	defer log.Sync() // nolint

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("load config failed: %v\n", err)
		os.Exit(1)
	}

	engineCfg, err := cfg.Exchange.EngineConfig()
	if err != nil {
		fmt.Printf("invalid exchange config: %v\n", err)
		os.Exit(1)
	}

	db := postgres_wrapper.InitPostgresWithBackoff(cfg.ExchangeDB)

	redisClient, err := redis_wrapper.InitRedis(cfg.Redis)
	if err != nil {
		fmt.Printf("connect redis failed: %v\n", err)
		os.Exit(1)
	}

	priceOracle := oracle.NewRedisOracle(redisClient,
		time.Duration(cfg.Exchange.OracleMaxAgeSeconds)*time.Second)
	market := marketdata.NewService(log, marketdata.NewRedisPublisher(redisClient))
	events := eventstore.NewInMemoryEventStore()

	engine, err := exchange.NewEngine(engineCfg, log, priceOracle, exchange.NoopRewards{}, market, events)
	if err != nil {
		fmt.Printf("init engine failed: %v\n", err)
		os.Exit(1)
	}

	archiver := worker.NewArchiver(repo.NewRepo(db), engine, log)
	go archiver.Run(ctx, events.Subscribe(4096))

	fmt.Println("exchange engine started. Press Ctrl+C to exit.")

	<-sigs
	fmt.Println("Shutting down...")

	events.Close()
	cancel()

	fmt.Println("Exited cleanly.")
}
