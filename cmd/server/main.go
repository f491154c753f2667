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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrisapp/hris_backend/internal/config"
	"github.com/hrisapp/hris_backend/internal/es"
	"github.com/hrisapp/hris_backend/internal/handlers"
	"github.com/hrisapp/hris_backend/internal/hrkafka"
	"github.com/hrisapp/hris_backend/internal/logging"
	"github.com/hrisapp/hris_backend/internal/middleware/csrf"
	loggingmw "github.com/hrisapp/hris_backend/internal/middleware/logging"
	authsvc "github.com/hrisapp/hris_backend/internal/service/auth"
	"github.com/hrisapp/hris_backend/internal/service/token"
	httpserver "github.com/hrisapp/hris_backend/internal/transport/http"
)

const announcementIndex = "announcement"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	configuration.MustValidate()

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	logger := logging.New(config.EnvDefault("LOG_LEVEL", "info"))

	topics := []string{"user_events", "leave_events", "announcement_events"}
	prod, err := hrkafka.NewProducer([]string{configuration.KAFKA_ADDRESS}, topics)
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	tokens := token.NewService([]byte(configuration.JWT_SECRET), []byte(configuration.REFRESH_SECRET))
	tokens.AccessTTL = configuration.AccessTTL
	tokens.RefreshTTL = configuration.RefreshTTL

	csrfCfg := csrf.DefaultConfig([]byte(configuration.CSRF_SECRET))
	csrfCfg.Secure = configuration.Production()
	csrfCfg.SkipPaths = []string{"/api/v1/auth/register"}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrfCfg))
	e.Static("/uploads/leave-attachments", configuration.UploadDir)

	deps := httpserver.Deps{
		Tokens: tokens,
		AuthHandler: &handlers.AuthHandler{
			Svc:      &authsvc.Service{DB: db, Tokens: tokens},
			Producer: prod,
			Secure:   configuration.Production(),
		},
		CSRFHandler:          &handlers.CSRFHandler{Cfg: csrfCfg},
		AccessUserHandler:    &handlers.AccessUserHandler{DB: db},
		EmployeeLeave:        &handlers.EmployeeLeaveHandler{DB: db, Producer: prod, UploadDir: configuration.UploadDir},
		HRLeave:              &handlers.HRLeaveHandler{DB: db, Producer: prod},
		HRAnnouncement:       &handlers.HRAnnouncementHandler{DB: db, ES: esClient, Index: announcementIndex, Producer: prod},
		EmployeeAnnouncement: &handlers.EmployeeAnnouncementHandler{DB: db},
		SearchHandler:        &handlers.SearchHandler{ES: esClient, Index: announcementIndex},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
