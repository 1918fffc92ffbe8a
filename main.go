// main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/BrandLens-AI/brandlens-workflows/internal/config"
	"github.com/BrandLens-AI/brandlens-workflows/services"
	"github.com/BrandLens-AI/brandlens-workflows/workflows"
)

func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode,
	)

	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("dev.env"); err != nil {
			log.Printf("Note: No .env or dev.env file loaded: %v", err)
		} else {
			log.Printf("Loaded dev.env file for local development")
		}
	} else {
		log.Printf("Loaded .env file")
	}

	cfg := config.Load()

	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Port: %s", cfg.Port)
	log.Printf("Database Host: %s", cfg.Database.Host)
	log.Printf("Database Name: %s", cfg.Database.Name)

	if cfg.OpenAIAPIKey == "" {
		log.Printf("WARNING: OpenAI API key not loaded!")
	}
	if cfg.AnthropicAPIKey == "" {
		log.Printf("WARNING: Anthropic API key not loaded!")
	}
	if cfg.PerplexityAPIKey == "" {
		log.Printf("WARNING: Perplexity API key not loaded!")
	}
	if cfg.GeminiAPIKey == "" {
		log.Printf("WARNING: Gemini API key not loaded!")
	}

	ctx := context.Background()
	db, err := connectDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Printf("Successfully connected to database")

	repoManager := services.NewRepositoryManager(db)
	log.Printf("Repository manager initialized")

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		log.Printf("Running in development mode - signing key verification disabled")
	}

	// Initialize services
	costService := services.NewCostService()
	providers := []services.AIProvider{
		services.NewOpenAIProvider(cfg, cfg.Analysis.OpenAIModel, costService),
		services.NewAnthropicProvider(cfg, cfg.Analysis.ClaudeModel, costService),
		services.NewPerplexityProvider(cfg, cfg.Analysis.PerplexityModel, costService),
		services.NewGeminiProvider(cfg, cfg.Analysis.GeminiModel, costService),
	}
	competitorService := services.NewCompetitorService(cfg)
	citationStore := services.NewCitationStore(repoManager.CitationRepo, repoManager.CitationSourceRepo)
	analysisService := services.NewAnalysisService(cfg, providers, competitorService, citationStore, repoManager.AnalysisRepo)
	log.Printf("Analysis services initialized with %d providers", len(providers))

	// Create Inngest client
	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "brandlens-workflows",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		log.Fatalf("Failed to create Inngest client: %v", err)
	}

	// Initialize and register workflows
	log.Printf("Initializing and registering workflows...")

	analysisProcessor := workflows.NewAnalysisProcessor(analysisService, cfg)
	analysisProcessor.SetClient(client)
	analysisProcessor.ProcessAnalysis()

	scheduledProcessor := workflows.NewScheduledProcessor(repoManager.CompanyRepo)
	scheduledProcessor.SetClient(client)
	scheduledProcessor.DailyAnalysisProcessor()
	scheduledProcessor.WeeklyBacklogAnalyzer()

	log.Printf("All processors initialized and functions registered")

	// Create and start server
	h := client.Serve()
	mux := http.NewServeMux()
	mux.Handle("/api/inngest", h)

	// Root endpoint for ALB health check
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"service":"brandlens-workflows","status":"running"}`))
	})

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.HandleFunc("/test/trigger-analysis", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var event workflows.AnalysisProcessEvent
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil || event.BrandName == "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"brand_name is required"}`))
			return
		}
		evt := inngestgo.Event{
			Name: "analysis.process",
			Data: map[string]interface{}{
				"brand_name":  event.BrandName,
				"website":     event.Website,
				"industry":    event.Industry,
				"competitors": event.Competitors,
			},
		}
		result, err := client.Send(r.Context(), evt)
		if err != nil {
			log.Printf("Failed to send test event: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(fmt.Sprintf(`{"error":"Failed to send event: %v"}`, err)))
			return
		}
		log.Printf("Test event sent successfully: %+v", result)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf(`{"status":"success","message":"Analysis triggered for %s","event_ids":["%s"]}`, event.BrandName, result)))
	})

	port := cfg.Port
	log.Printf("Starting BrandLens Workflows service on port %s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatal(err)
	}
}
