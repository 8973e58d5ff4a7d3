package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jobboard/tracker/internal/api"
	"github.com/jobboard/tracker/internal/config"
	"github.com/jobboard/tracker/internal/controller"
	"github.com/jobboard/tracker/internal/db"
	"github.com/jobboard/tracker/internal/script"
	"github.com/jobboard/tracker/internal/tracker"
	"github.com/jobboard/tracker/internal/view"
	"github.com/jobboard/tracker/internal/ws"
)

func main() {
	scriptPath := flag.String("script", "", "Run a Lua session script against the seeded board and print the result")
	seedPath := flag.String("seed", "", "YAML seed file (default: SEED_FILE or the built-in postings)")
	flag.Parse()

	// A .env file is optional; variables already set win.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if *seedPath != "" {
		cfg.SeedFile = *seedPath
	}

	repo, closeRepo, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("Store error: %v", err)
	}
	defer closeRepo()

	seed, err := tracker.LoadSeed(cfg.SeedFile)
	if err != nil {
		log.Fatalf("Seed error: %v", err)
	}

	ctrl := controller.New(tracker.NewBoard(repo))
	ctrl.SetDebug(cfg.Debug || cfg.LogLevel == "debug")
	if _, err := ctrl.Start(seed); err != nil {
		log.Fatalf("Startup error: %v", err)
	}

	if *scriptPath != "" {
		if err := runScript(cfg, ctrl, *scriptPath); err != nil {
			log.Fatalf("Script error: %v", err)
		}
		return
	}

	runServer(cfg, ctrl)
}

func openRepository(cfg *config.Config) (tracker.Repository, func(), error) {
	if cfg.StoreBackend != config.BackendBadger {
		return tracker.NewMemoryRepository(), func() {}, nil
	}
	store, err := db.NewMemoryStore()
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			log.Printf("Store close error: %v", err)
		}
	}
	return tracker.NewBadgerRepository(store), closeFn, nil
}

func runScript(cfg *config.Config, ctrl *controller.Controller, path string) error {
	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt := script.NewRuntime(ctrl)
	result, err := rt.Execute(ctx, string(code), cfg.ScriptTimeout)
	if err != nil {
		return err
	}

	fmt.Print(result.Output)
	if result.Output != "" && result.Output[len(result.Output)-1] != '\n' {
		fmt.Println()
	}
	return view.RenderText(os.Stdout, result.Final)
}

func runServer(cfg *config.Config, ctrl *controller.Controller) {
	log.Printf("Starting %s (store: %s)", cfg.AppName, cfg.StoreBackend)
	log.Printf("HTTP port: %d", cfg.HTTPPort)

	live := ws.NewServer(ctrl, cfg.WSWriteTimeout)
	router := api.NewRouter(cfg, ctrl, live)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	// Hijacked websocket connections are not tracked by Shutdown.
	server.RegisterOnShutdown(live.Close)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Jobboard - job application tracker\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  %s [flags]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Modes:\n")
		fmt.Fprintf(os.Stderr, "  Server (default): Serve the board over HTTP and WebSocket\n")
		fmt.Fprintf(os.Stderr, "  Script: Replay a Lua session and print the final board\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                              # Serve on :8000\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --seed ./postings.yaml       # Serve a custom seed list\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --script ./session.lua       # Run a scripted session\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment (also read from ./.env): APP_NAME HTTP_PORT DEBUG LOG_LEVEL STORE_BACKEND SEED_FILE SCRIPT_TIMEOUT WS_WRITE_TIMEOUT\n")
	}
}
