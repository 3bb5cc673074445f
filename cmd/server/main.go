package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/craftrelay/backend/internal/adapter"
	"github.com/craftrelay/backend/internal/adapter/mclib"
	"github.com/craftrelay/backend/internal/adapter/mock"
	"github.com/craftrelay/backend/internal/config"
	"github.com/craftrelay/backend/internal/frontend"
	"github.com/craftrelay/backend/internal/session"
	"github.com/craftrelay/backend/internal/ws"
)

func main() {
	mockMode := flag.Bool("mock", false, "Use a synthetic game adapter")
	devMode := flag.Bool("dev", false, "Development mode (serve frontend from filesystem)")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	autoConnect := flag.Bool("connect", false, "Connect to the default server on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *port > 0 {
		cfg.Server.Port = *port
	}

	factory := mclib.New
	if *mockMode {
		log.Println("Starting with the mock game adapter")
		factory = mock.New
	}

	store := session.NewStore(cfg.Session.ChatHistory)
	hub := ws.NewHub(store)

	machine := session.NewMachine(session.Options{
		Factory:   factory,
		Store:     store,
		Publisher: hub,
		Defaults: adapter.Config{
			Host:     cfg.Bot.Host,
			Port:     cfg.Bot.Port,
			Username: cfg.Bot.Username,
			Password: cfg.Bot.Password,
			Auth:     adapter.AuthMode(cfg.Bot.Auth),
		},
		RosterInterval: cfg.Session.RosterInterval,
		VitalsInterval: cfg.Session.VitalsInterval,
		WarmupDelay:    cfg.Session.WarmupDelay,
	})

	frontendDir := ""
	if *devMode {
		exe, _ := os.Executable()
		frontendDir = filepath.Join(filepath.Dir(exe), "..", "..", "frontend")
		// If running with go run, the exe path is in a temp dir, use CWD instead
		if _, err := os.Stat(frontendDir); os.IsNotExist(err) {
			cwd, _ := os.Getwd()
			frontendDir = filepath.Join(cwd, "..", "frontend")
		}
	}

	// Embedded frontend handler: when built with -tags embed, serves from binary.
	// Otherwise falls back to serving from the filesystem.
	var embeddedHandler http.Handler
	if !*devMode {
		embeddedHandler = frontend.Handler()
		if embeddedHandler == nil {
			cwd, _ := os.Getwd()
			fallback := filepath.Join(cwd, "..", "frontend")
			if _, err := os.Stat(fallback); err == nil {
				log.Printf("No embedded frontend, falling back to: %s", fallback)
				embeddedHandler = http.FileServer(http.Dir(fallback))
			}
		}
	}

	server := ws.NewServer(cfg, store, hub, machine, frontendDir, *devMode, embeddedHandler)

	if *autoConnect {
		if err := machine.Connect(adapter.Config{}); err != nil {
			log.Printf("Startup connect failed: %v", err)
		}
	}

	mux := http.NewServeMux()
	server.SetupRoutes(mux)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		machine.Disconnect()
		os.Exit(0)
	}()

	if err := ws.ListenAndServe(cfg.Server.Host, cfg.Server.Port, mux); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
