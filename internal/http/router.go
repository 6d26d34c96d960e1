// Package httpapi wires the HTTP transport (Gin) to the application
// services, middleware, and route handlers. Cross-cutting concerns live
// here: tracing, correlation IDs, redacting logs, panic recovery, metrics,
// idempotency, rate limiting, CORS, compression, and security headers.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with privileged-data scrubbing
//  4. Recovery: capture panics after logging
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiting so replays bypass it)
//  8. Rate limiter (per user/IP)
//  9. CORS, gzip, security headers
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-juris-backend/internal/chunk"
	"github.com/tbourn/go-juris-backend/internal/config"
	"github.com/tbourn/go-juris-backend/internal/http/handlers"
	"github.com/tbourn/go-juris-backend/internal/http/middleware"
	"github.com/tbourn/go-juris-backend/internal/indexer"
	"github.com/tbourn/go-juris-backend/internal/kb"
	"github.com/tbourn/go-juris-backend/internal/llm"
	"github.com/tbourn/go-juris-backend/internal/repo"
	"github.com/tbourn/go-juris-backend/internal/search"
	"github.com/tbourn/go-juris-backend/internal/services"
)

// RegisterRoutes attaches all middleware and endpoints to the Gin engine and
// returns the thesis service so main can hand it to the extraction worker.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, gw llm.Gateway, cache kb.Cache, cfg config.Config) *services.ThesisService {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (4 MiB: page payloads are text, not PDFs)
	r.Use(limitBody(4 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, conversationID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (allow all when no allowlist is configured)
	corsAllowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Idempotency-Replayed", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsAllowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Idempotency-Replayed", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// gzip for JSON endpoints; SSE must stay uncompressed so deltas flush
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/metrics"}),
		gzip.WithExcludedPathsRegexs([]string{`.*/turns$`}),
	))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/gateway/cache
	retriever := &search.Retriever{DB: db, Gateway: gw}

	convSvc := services.NewConversationService(db, gw)

	assembler := &services.ContextAssembler{
		DB:          db,
		Retriever:   retriever,
		Cache:       cache,
		Fetcher:     kb.NewHTTPFetcher(),
		Persona:     cfg.DefaultPersona,
		ChunkTopK:   cfg.Retrieval.TopK,
		ThesisTopK:  cfg.Retrieval.ThesisTopK,
		BudgetRunes: cfg.Retrieval.ContextBudget,
	}
	turnSvc := services.NewTurnService(db, gw, assembler, convSvc)

	thesisSvc := &services.ThesisService{
		DB:                  db,
		Gateway:             gw,
		Retriever:           retriever,
		SimilarityThreshold: cfg.Retrieval.ThesisThreshold,
		CandidateTopK:       cfg.Retrieval.ThesisTopK,
	}

	ix := &indexer.Indexer{
		DB:      db,
		Gateway: gw,
		Splitter: chunk.Splitter{
			TargetRunes:  cfg.Retrieval.ChunkTargetRunes,
			OverlapRunes: cfg.Retrieval.ChunkOverlapRunes,
		},
		Concurrency: cfg.Retrieval.EmbedConcurrency,
	}

	h := handlers.New(db, convSvc, turnSvc, thesisSvc, ix, gw)
	h.IdempotencyTTL = cfg.IdempotencyTTL

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Conversations
		api.POST("/conversations", h.CreateConversation)
		api.GET("/conversations", h.ListConversations)
		api.GET("/conversations/:id", h.GetConversation)
		api.PUT("/conversations/:id/title", h.RenameConversation)
		api.PUT("/conversations/:id/pinned", h.PinConversation)
		api.DELETE("/conversations/:id", h.DeleteConversation)

		api.GET("/conversations/:id/duplicates", h.ListCaseDuplicates)

		// Turns and messages
		api.GET("/conversations/:id/messages", h.ListMessages)
		api.POST("/conversations/:id/turns", h.StreamTurn)
		api.POST("/conversations/:id/messages/:messageID/decision", h.DecideDraft)

		// Cases and documents
		api.POST("/cases", h.CreateCase)
		api.GET("/cases", h.ListCases)
		api.GET("/cases/:id", h.GetCase)
		api.PUT("/cases/:id", h.UpdateCase)
		api.DELETE("/cases/:id", h.DeleteCase)
		api.POST("/cases/:id/documents", h.IngestDocument)
		api.GET("/cases/:id/documents", h.ListDocuments)
		api.GET("/documents/:id/chunks", h.ListDocumentChunks)
		api.DELETE("/documents/:id", h.DeleteDocument)

		// Knowledge base
		api.POST("/knowledge", h.CreateKnowledgeDoc)
		api.GET("/knowledge", h.ListKnowledgeDocs)
		api.PUT("/knowledge/:id", h.UpdateKnowledgeDoc)
		api.DELETE("/knowledge/:id", h.DeleteKnowledgeDoc)

		// Learned theses
		api.GET("/theses", h.ListTheses)
		api.GET("/theses/conflicts", h.ListThesisConflicts)
		api.POST("/theses/:id/resolve", h.ResolveThesis)

		// Models
		api.GET("/models", h.ListModels)
	}

	return thesisSvc
}

// limitBody caps the request body size using http.MaxBytesReader; oversized
// bodies error on read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
