package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/Sudarshan2323/Resto/internal/auth"
	"github.com/Sudarshan2323/Resto/internal/config"
	"github.com/Sudarshan2323/Resto/internal/events"
	"github.com/Sudarshan2323/Resto/internal/router"
	"github.com/Sudarshan2323/Resto/internal/seed"
	"github.com/Sudarshan2323/Resto/internal/service"
	"github.com/Sudarshan2323/Resto/internal/store"
	"github.com/Sudarshan2323/Resto/internal/store/memory"
	"github.com/Sudarshan2323/Resto/internal/store/postgres"
	"github.com/Sudarshan2323/Resto/internal/ws"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
	cfg := config.Load()
	ctx := context.Background()

	st, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer cleanup()

	// WebSocket hub for dashboard push updates
	hub := ws.NewHub()
	go hub.Run()

	notifiers := []service.Notifier{ws.NewNotifier(hub)}
	if cfg.NATSURL != "" {
		publisher, err := events.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		log.Printf("Publishing lifecycle events to NATS at %s", cfg.NATSURL)
	}

	authorizer := auth.NewOverrideAuthorizer(cfg.AdminOverridePin)
	engine := service.NewTableService(st, st, authorizer, notifiers...)

	r := router.New(cfg, st, engine, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}

// openStore selects the backing store: postgres when DATABASE_URL is set,
// otherwise the in-memory store seeded with the default floor plan.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		log.Println("Connected to postgres")
		return pg, pg.Close, nil
	}

	mem, err := memory.New(cfg.StateFile)
	if err != nil {
		return nil, nil, err
	}
	if mem.Empty() {
		users, err := seed.DefaultUsers("12345", "23456")
		if err != nil {
			return nil, nil, err
		}
		if err := mem.Seed(seed.DefaultTables(), seed.DefaultMenu(), users); err != nil {
			return nil, nil, err
		}
		log.Println("Seeded default floor plan, menu, and accounts")
	}
	if cfg.StateFile != "" {
		log.Printf("Using in-memory store with state file %s", cfg.StateFile)
	} else {
		log.Println("Using in-memory store (no persistence)")
	}
	return mem, func() {}, nil
}
