// Package router wires handlers, auth middleware and the Redis
// cache/rate-limit layers onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-venue-manager/internal/config"
	"github.com/iliyamo/cinema-venue-manager/internal/handler"
	"github.com/iliyamo/cinema-venue-manager/internal/middleware"
)

// Handlers collects the handler set the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Rooms   *handler.RoomHandler
	Movies  *handler.MovieHandler
	Shows   *handler.ShowHandler
	Tickets *handler.TicketHandler
	Wallet  *handler.WalletHandler
	Users   *handler.UserHandler
	Stats   *handler.StatsHandler
}

// Register mounts all routes under /v1. Reads of the catalogue and
// schedule are public and cached; everything else requires a valid
// access token, with mutations of rooms, movies and shows behind the
// ADMIN role.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, h Handlers) {
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	e.GET("/health", handler.Health)

	v1 := e.Group("/v1")

	// Auth endpoints stay outside the JWT middleware; logout accepts
	// either credential form on its own.
	v1.POST("/auth/register", h.Auth.Register)
	v1.POST("/auth/login", h.Auth.Login)
	v1.POST("/auth/refresh", h.Auth.Refresh)
	v1.POST("/auth/refresh-access", h.Auth.RefreshAccess)
	v1.POST("/auth/logout", h.Auth.Logout)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Public catalogue and schedule reads.
	v1.GET("/rooms", h.Rooms.ListRooms, cache)
	v1.GET("/rooms/:id", h.Rooms.GetRoom, cache)
	v1.GET("/movies", h.Movies.ListMovies, cache)
	v1.GET("/movies/:id", h.Movies.GetMovie, cache)
	v1.GET("/movies/:id/shows", h.Movies.MovieShows, cache)
	v1.GET("/shows", h.Shows.ListShows, cache)
	v1.GET("/shows/:id", h.Shows.GetShow, cache)
	v1.GET("/shows/:id/places", h.Shows.RemainingPlaces)

	jwt := middleware.JWTAuth(cfg.JWTSecret)
	adminOnly := middleware.RequireRole("ADMIN")

	// Authenticated user surface.
	auth := v1.Group("", jwt)
	auth.GET("/users/me", h.Auth.Me)
	auth.GET("/users/me/shows", h.Tickets.MyShows)
	auth.GET("/users/me/transactions", h.Wallet.MyTransactions)
	auth.PUT("/users/me/balance", h.Wallet.AdjustMyBalance)

	auth.POST("/tickets", h.Tickets.Purchase)
	auth.GET("/tickets", h.Tickets.ListTickets)
	auth.GET("/tickets/:id", h.Tickets.GetTicket)
	auth.GET("/tickets/:id/shows", h.Tickets.TicketShows)
	auth.POST("/tickets/:id/shows/:show_id", h.Tickets.Book)

	auth.GET("/transactions/:id", h.Wallet.GetTransaction)

	// Admin surface.
	admin := v1.Group("", jwt, adminOnly)
	admin.POST("/rooms", h.Rooms.CreateRoom)
	admin.PUT("/rooms/:id", h.Rooms.UpdateRoom)
	admin.DELETE("/rooms/:id", h.Rooms.DeleteRoom)

	admin.POST("/movies", h.Movies.CreateMovie)
	admin.PUT("/movies/:id", h.Movies.UpdateMovie)
	admin.DELETE("/movies/:id", h.Movies.DeleteMovie)

	admin.POST("/shows", h.Shows.CreateShow)
	admin.PATCH("/shows/:id", h.Shows.UpdateShow)
	admin.DELETE("/shows/:id", h.Shows.DeleteShow)

	admin.PUT("/tickets/:id/shows/:show_id", h.Tickets.Toggle)

	admin.GET("/users", h.Users.ListUsers)
	admin.GET("/users/:id", h.Users.GetUser)
	admin.PUT("/users/:id/balance", h.Wallet.AdjustUserBalance)
	admin.GET("/transactions", h.Wallet.ListTransactions)

	admin.GET("/stats", h.Stats.GetStats)
}
