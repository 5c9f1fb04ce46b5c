package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-venue-manager/internal/config"
	"github.com/iliyamo/cinema-venue-manager/internal/database"
	"github.com/iliyamo/cinema-venue-manager/internal/handler"
	"github.com/iliyamo/cinema-venue-manager/internal/queue"
	"github.com/iliyamo/cinema-venue-manager/internal/repository"
	"github.com/iliyamo/cinema-venue-manager/internal/router"
	"github.com/iliyamo/cinema-venue-manager/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limiting disabled")
	}

	roomRepo := repository.NewRoomRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	showRepo := repository.NewShowRepo(db)
	ticketRepo := repository.NewTicketRepo(db)
	userRepo := repository.NewUserRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	tokenRepo := repository.NewTokenRepo(db)

	wallet := service.NewWallet(userRepo, txRepo)
	scheduler := service.NewScheduler(roomRepo, movieRepo, showRepo)
	tickets := service.NewTicketManager(ticketRepo, showRepo, wallet)
	stats := service.NewStatsService(showRepo)

	e := echo.New()
	router.Register(e, cfg, rdb, router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, userRepo, tokenRepo),
		Rooms:   handler.NewRoomHandler(roomRepo),
		Movies:  handler.NewMovieHandler(movieRepo, showRepo),
		Shows:   handler.NewShowHandler(scheduler),
		Tickets: handler.NewTicketHandler(tickets),
		Wallet:  handler.NewWalletHandler(wallet),
		Users:   handler.NewUserHandler(userRepo),
		Stats:   handler.NewStatsHandler(stats),
	})

	// Ledger log consumer; reconnects on its own and never stops the
	// server.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
