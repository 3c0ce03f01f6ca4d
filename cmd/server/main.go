// Command server runs the course request service: a JSON API over the user,
// course and request services, backed by MongoDB (or an in-memory store for
// local development).
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursereq/internal/api"
	"coursereq/internal/course"
	"coursereq/internal/identity"
	"coursereq/internal/notification"
	"coursereq/internal/platform/config"
	"coursereq/internal/platform/httpserver"
	"coursereq/internal/platform/logger"
	"coursereq/internal/platform/metrics"
	"coursereq/internal/request"
	"coursereq/internal/store/memory"
	mongostore "coursereq/internal/store/mongo"
	"coursereq/internal/user"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		userStore    user.Store
		courseStore  course.Store
		requestStore request.Store
		classDir     notification.ClassDirectory
		closeStore   = func(context.Context) error { return nil }
	)
	switch cfg.Store {
	case "memory":
		log.Warn("using the in-memory store, data will not survive a restart")
		users := memory.NewUserStore()
		userStore, courseStore, requestStore = users, memory.NewCourseStore(), memory.NewRequestStore()
		classDir = users
	default:
		conn, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Error("store connection failed", "error", err)
			os.Exit(1)
		}
		if err := conn.EnsureIndexes(ctx); err != nil {
			log.Error("index creation failed", "error", err)
			os.Exit(1)
		}
		users := conn.Users()
		userStore, courseStore, requestStore = users, conn.Courses(), conn.Requests()
		classDir = users
		closeStore = conn.Close
	}

	mailer, err := notification.New(notification.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Sender:   cfg.SMTPSender,
		BaseURL:  cfg.BaseURL,
	}, classDir, notification.WithLogger(log))
	if err != nil {
		log.Error("mailer setup failed", "error", err)
		os.Exit(1)
	}

	userSvc, err := user.New(userStore, user.WithLogger(log))
	if err != nil {
		log.Error("user service setup failed", "error", err)
		os.Exit(1)
	}
	courseSvc, err := course.New(courseStore, userStore, course.WithLogger(log))
	if err != nil {
		log.Error("course service setup failed", "error", err)
		os.Exit(1)
	}
	requestSvc, err := request.New(requestStore, userStore, courseStore,
		request.WithLogger(log), request.WithNotifier(mailer))
	if err != nil {
		log.Error("request service setup failed", "error", err)
		os.Exit(1)
	}

	if cfg.AdminToken == "" {
		log.Warn("no admin token configured, course creation endpoint is closed")
	}

	router := api.NewRouter(api.RouterConfig{
		Users:      userSvc,
		Courses:    courseSvc,
		Requests:   requestSvc,
		Verifier:   identity.NewVerifier(cfg.JWTSigningKey, cfg.JWTIssuer),
		Syncer:     userSvc,
		AdminToken: cfg.AdminToken,
		Metrics:    metrics.New(),
		Logger:     log,
	})
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server started", "addr", cfg.Addr, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	mailer.Flush()
	if err := closeStore(shutdownCtx); err != nil {
		log.Error("store close failed", "error", err)
	}
}
