package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerdfunk-net/cockpit-sub000/internal/config"
	"github.com/nerdfunk-net/cockpit-sub000/internal/gitstore"
	"github.com/nerdfunk-net/cockpit-sub000/internal/handler"
	"github.com/nerdfunk-net/cockpit-sub000/internal/hub"
	"github.com/nerdfunk-net/cockpit-sub000/internal/inventory"
	"github.com/nerdfunk-net/cockpit-sub000/internal/onboard"
	"github.com/nerdfunk-net/cockpit-sub000/internal/registration"
	"github.com/nerdfunk-net/cockpit-sub000/internal/repository/sqlite"
	"github.com/nerdfunk-net/cockpit-sub000/internal/scan"
	"github.com/nerdfunk-net/cockpit-sub000/internal/service"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting discovery server...")

	// Load configuration
	var cfg *config.Config
	var loadedFrom string
	var err error
	if *configPath != "" {
		cfg, loadedFrom, err = config.LoadFromPath(*configPath)
	} else {
		cfg, loadedFrom, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if loadedFrom != "" {
		log.Printf("Config loaded from %s", loadedFrom)
	} else {
		log.Println("No config file found, using defaults")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	// Initialize event bus and SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New()
	go sseHub.Run()

	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for event := range eventChan {
			sseHub.Broadcast(event)
		}
	}()

	// Initialize secrets service (credential resolver for scans)
	secretsSvc := service.NewSecretsService(repo, eventBus)
	secretsSvc.SetMountedPaths(cfg.Secrets.MountedPaths)
	if err := secretsSvc.LoadMountedSecrets(); err != nil {
		log.Printf("Warning: failed to load mounted secrets: %v", err)
	}

	// Reachability prober
	var prober scan.Prober
	probeTimeout := time.Duration(cfg.Scan.ProbeTimeoutMS) * time.Millisecond
	switch cfg.Scan.Prober {
	case "nmap":
		nmapProber := scan.NewNmapProber(probeTimeout)
		if !nmapProber.Available(context.Background()) {
			log.Fatalf("Prober configured as nmap but nmap is not usable")
		}
		prober = nmapProber
		log.Println("Reachability prober: nmap")
	default:
		prober = scan.NewPingProber(scan.PingConfig{
			Timeout:       probeTimeout,
			FallbackPorts: cfg.Scan.FallbackPorts,
			RatePerSecond: float64(cfg.Scan.ProbeRatePerSecond),
		})
		log.Println("Reachability prober: ping")
	}

	// Credential trials over SSH
	trials := scan.NewTrialEngine(secretsSvc, nil, scan.TrialConfig{
		ConnectTimeout: time.Duration(cfg.Scan.ConnectTimeoutSec) * time.Second,
		Attempts:       cfg.Scan.CredentialAttempts,
		Port:           cfg.Scan.SSHPort,
	})

	// Platform classifier with configured parse templates
	templates := scan.TemplateSet{}
	for _, tmpl := range cfg.Templates {
		templates[tmpl.Name] = scan.OutputTemplate{
			Name:     tmpl.Name,
			Hostname: tmpl.Hostname,
			Platform: tmpl.Platform,
		}
	}
	classifier := scan.NewClassifier(nil, templates)

	// Scan job coordinator
	coordinator := scan.NewCoordinator(prober, trials, classifier, scan.CoordinatorConfig{
		MinPrefixLen:  cfg.Scan.MinPrefixLen,
		MaxConcurrent: cfg.Scan.MaxConcurrent,
		Retention:     time.Duration(cfg.Scan.RetentionHours) * time.Hour,
	})
	coordinator.SetEventPublisher(service.NewEventPublisher(eventBus))
	coordinator.Start()

	// Registration API client for network devices
	var registrar registration.Submitter
	if cfg.Registration.URL != "" {
		token := ""
		if cfg.Registration.TokenSecret != "" {
			secret, err := secretsSvc.GetSecret(context.Background(), cfg.Registration.TokenSecret)
			if err != nil || secret == nil {
				log.Fatalf("Registration token secret %s not resolvable", cfg.Registration.TokenSecret)
			}
			token = secret.Data["value"]
			if token == "" {
				token = secret.Data["token"]
			}
		}
		registrar = registration.NewClient(registration.Config{
			URL:     cfg.Registration.URL,
			Token:   token,
			Timeout: time.Duration(cfg.Registration.TimeoutSec) * time.Second,
		})
		log.Printf("Registration API: %s", cfg.Registration.URL)
	} else {
		log.Println("Registration API not configured; network devices cannot be onboarded")
	}

	// Inventory artifact store for general servers
	var store onboard.ArtifactStore
	if cfg.Inventory.Dir != "" {
		gitStore, err := gitstore.NewStore(gitstore.Config{
			Dir:    cfg.Inventory.Dir,
			Subdir: cfg.Inventory.Subdir,
			Push:   cfg.Inventory.Push,
		})
		if err != nil {
			log.Fatalf("Failed to open inventory repository: %v", err)
		}
		store = gitStore
		log.Printf("Inventory repository: %s", cfg.Inventory.Dir)
	} else {
		log.Println("Inventory repository not configured; general servers cannot be onboarded")
	}

	// Custom inventory templates
	templateRegistry := inventory.NewRegistry()
	for name, path := range cfg.Inventory.Templates {
		body, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read inventory template %s: %v", name, err)
		}
		renderer, err := inventory.NewTemplateRenderer(name, string(body))
		if err != nil {
			log.Fatalf("Failed to parse inventory template %s: %v", name, err)
		}
		templateRegistry.Register(name, renderer)
		log.Printf("Inventory template registered: %s", name)
	}

	// Onboarding dispatcher
	dispatcher := onboard.NewDispatcher(coordinator, registrar, templateRegistry, store)
	dispatcher.SetEventPublisher(service.NewEventPublisher(eventBus))

	// HTTP handlers
	scanHandler := handler.NewScanHandler(coordinator, dispatcher)
	secretsHandler := handler.NewSecretsHandler(secretsSvc)

	mux := http.NewServeMux()

	// Scan endpoints
	mux.HandleFunc("POST /api/scan", scanHandler.StartScan)
	mux.HandleFunc("GET /api/scan/{id}", scanHandler.GetScan)

	// Onboarding endpoint
	mux.HandleFunc("POST /api/onboard", scanHandler.Onboard)

	// Secrets endpoints
	mux.HandleFunc("GET /api/secrets", secretsHandler.ListSecrets)
	mux.HandleFunc("POST /api/secrets", secretsHandler.CreateSecret)
	mux.HandleFunc("GET /api/secrets/{id}", secretsHandler.GetSecret)
	mux.HandleFunc("PUT /api/secrets/{id}", secretsHandler.UpdateSecret)
	mux.HandleFunc("DELETE /api/secrets/{id}", secretsHandler.DeleteSecret)
	mux.HandleFunc("POST /api/secrets/refresh", secretsHandler.RefreshMountedSecrets)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	coordinator.Stop()
	sseHub.Stop()

	log.Println("Server stopped")
}
