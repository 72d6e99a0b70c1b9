package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fesexport/backend/catchcert"
	"github.com/fesexport/backend/config"
	"github.com/fesexport/backend/handler"
	"github.com/fesexport/backend/lifecycle"
	"github.com/fesexport/backend/middleware"
	"github.com/fesexport/backend/model"
	"github.com/fesexport/backend/orchestration"
	"github.com/fesexport/backend/processing"
	"github.com/fesexport/backend/progress"
	"github.com/fesexport/backend/service"
	"github.com/fesexport/backend/steps"
	"github.com/fesexport/backend/storage"
	"github.com/gin-gonic/gin"
)

// referenceClient is what the wizard needs from the reference-data API.
type referenceClient interface {
	steps.ReferenceData
	catchcert.LandingsChecker
}

// app holds the wired services behind the HTTP surface.
type app struct {
	store         service.DraftStore
	orchestrators *orchestration.Dispatcher
	progress      *progress.Service
	lifecycle     *lifecycle.Service
}

// progressRules returns the progress evaluation of every document type.
// checker may be nil, in which case no landings are flagged.
func progressRules(checker catchcert.LandingsChecker, now func() time.Time) map[model.DocumentType]progress.Rule {
	return map[model.DocumentType]progress.Rule{
		model.CatchCertificate:    catchcert.Adapter{}.ProgressRule(checker, now),
		model.ProcessingStatement: processing.Adapter{}.ProgressRule(now),
		model.StorageDocument:     storage.Adapter{}.ProgressRule(),
	}
}

func newApp(store service.DraftStore, reference referenceClient, archive lifecycle.Archive, now func() time.Time) (*app, error) {
	if now == nil {
		now = time.Now
	}
	validator := service.NewDocumentValidator(store)
	deps := steps.Dependencies{Reference: reference, Documents: validator}

	ccRoutes, err := steps.Compose(catchcert.Routes(deps, now))
	if err != nil {
		return nil, fmt.Errorf("catch certificate routes: %w", err)
	}
	psRoutes, err := steps.Compose(processing.Routes(deps, now))
	if err != nil {
		return nil, fmt.Errorf("processing statement routes: %w", err)
	}
	sdRoutes, err := steps.Compose(storage.Routes(deps))
	if err != nil {
		return nil, fmt.Errorf("storage document routes: %w", err)
	}

	orchestrators := orchestration.NewDispatcher(
		orchestration.NewService(store, orchestration.Document[catchcert.FrontEnd]{
			Adapter:  catchcert.Adapter{},
			Registry: ccRoutes,
			State:    func(fe *catchcert.FrontEnd) *model.StepState { return &fe.StepState },
		}),
		orchestration.NewService(store, orchestration.Document[processing.FrontEnd]{
			Adapter:  processing.Adapter{},
			Registry: psRoutes,
			Prepare: func(ctx context.Context, fe *processing.FrontEnd, payload model.Fields) error {
				return processing.ResolveLandedWeights(ctx, validator, fe, payload)
			},
			State: func(fe *processing.FrontEnd) *model.StepState { return &fe.StepState },
		}),
		orchestration.NewService(store, orchestration.Document[storage.FrontEnd]{
			Adapter:  storage.Adapter{},
			Registry: sdRoutes,
			State:    func(fe *storage.FrontEnd) *model.StepState { return &fe.StepState },
		}),
	)

	progressSvc := progress.NewService(store, progressRules(reference, now))

	cloners := map[model.DocumentType]lifecycle.Cloner{
		model.CatchCertificate:    catchcert.Adapter{},
		model.ProcessingStatement: processing.Adapter{},
		model.StorageDocument:     storage.Adapter{},
	}

	return &app{
		store:         store,
		orchestrators: orchestrators,
		progress:      progressSvc,
		lifecycle:     lifecycle.NewService(store, cloners, progressSvc, archive),
	}, nil
}

// router builds the HTTP surface.
func (a *app) router(cfg *config.Config) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(corsMiddleware())
	router.Use(cacheMiddleware())
	router.Use(middleware.RateLimit(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	authHandler := handler.NewAuthHandler(cfg)
	router.POST("/api/auth/login", authHandler.Login)

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(&cfg.Auth))
	v1.Use(middleware.PrincipalRateLimit(cfg.RateLimit.PrincipalRequests, time.Duration(cfg.RateLimit.WindowSeconds)*time.Second))
	v1.GET("/auth/me", authHandler.GetCurrentUser)

	documents := handler.NewDocumentHandler(a.orchestrators, a.progress, a.lifecycle)
	documents.RegisterRoutes(v1, middleware.DocumentOwnership(a.store))

	return router
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// cacheMiddleware keeps drafts and progress out of shared caches.
func cacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/v1") || strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
		}
		c.Next()
	}
}
