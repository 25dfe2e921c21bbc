package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/kidario/kidario-api/api/swagger"
	"github.com/kidario/kidario-api/internal/handler"
	"github.com/kidario/kidario-api/internal/middleware"
	"github.com/kidario/kidario-api/internal/repository"
	"github.com/kidario/kidario-api/internal/service"
	"github.com/kidario/kidario-api/pkg/config"
	"github.com/kidario/kidario-api/pkg/database"
	"github.com/kidario/kidario-api/pkg/logger"
	corsmiddleware "github.com/kidario/kidario-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kidario/kidario-api/pkg/middleware/requestid"
)

// @title Kidario API
// @version 1.0.0
// @description Tutoring marketplace backend: profiles, availability, bookings and the public teacher marketplace.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	profileRepo := repository.NewProfileRepository(db, metricsSvc.ObserveDBQuery)
	bookingRepo := repository.NewBookingRepository(db, metricsSvc.ObserveDBQuery)
	availabilityRepo := repository.NewAvailabilityRepository(db, metricsSvc.ObserveDBQuery)
	marketplaceRepo := repository.NewMarketplaceRepository(db, metricsSvc.ObserveDBQuery)

	validate := validator.New()
	verbose := cfg.Env != config.EnvProduction

	authSvc := service.NewAuthService(cfg.Auth, logr)
	profileSvc := service.NewProfileService(profileRepo, validate, logr, verbose)
	bookingSvc := service.NewBookingService(bookingRepo, profileRepo, validate, logr, verbose)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, profileRepo, logr, verbose)
	marketplaceSvc := service.NewMarketplaceService(marketplaceRepo, availabilityRepo, logr, verbose)

	profileHandler := handler.NewProfileHandler(profileSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc, availabilitySvc, metricsSvc)
	marketplaceHandler := handler.NewMarketplaceHandler(marketplaceSvc)
	adminHandler := handler.NewAdminHandler(profileSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	healthCheck := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	r.GET("/health", healthCheck)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/health", healthCheck)
	api.GET("/marketplace/teachers", marketplaceHandler.ListTeachers)
	api.GET("/marketplace/teachers/:id", marketplaceHandler.TeacherDetail)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/profiles/me", profileHandler.Me)
		authed.PATCH("/profiles/parent", profileHandler.PatchParent)
		authed.PATCH("/profiles/teacher", profileHandler.PatchTeacher)

		authed.POST("/bookings", bookingHandler.Create)
		authed.GET("/bookings/parent/agenda", bookingHandler.ParentAgenda)
		authed.GET("/bookings/teacher/agenda", bookingHandler.TeacherAgenda)
		authed.GET("/bookings/:id", bookingHandler.Detail)
		authed.PATCH("/bookings/:id/reschedule", bookingHandler.Reschedule)
		authed.PATCH("/bookings/:id/cancel", bookingHandler.Cancel)
		authed.PATCH("/bookings/:id/complete", bookingHandler.Complete)

		authed.GET("/teachers/:id/availability/slots", bookingHandler.Slots)

		admin := authed.Group("/admin")
		admin.Use(middleware.RequireAdmin(cfg.Admin))
		{
			admin.PATCH("/teachers/:id/activation", adminHandler.SetTeacherActivation)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
