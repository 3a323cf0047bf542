package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"wellness-tracker/internal/api"
	"wellness-tracker/internal/bot"
	"wellness-tracker/internal/config"
	"wellness-tracker/internal/repository"
	"wellness-tracker/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	eventRepo := repository.NewEventRepository(db)

	categorySvc := service.NewCategoryService(categoryRepo)
	if err := categorySvc.Seed(ctx); err != nil {
		log.Fatalf("seed: %v", err)
	}
	eventSvc := service.NewEventService(db, eventRepo, categoryRepo)
	reportSvc := service.NewReportService(eventSvc)

	var server *http.Server
	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		server = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(api.NewHandler(eventSvc)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("[info] http listening on %s", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http: %v", err)
				stop()
			}
		}()
	}

	if cfg.TelegramToken != "" {
		telegramBot, err := bot.New(cfg.TelegramToken, cfg.OwnerID, userRepo, categorySvc, eventSvc, reportSvc)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}

		scheduler := service.NewSchedulerService(time.Local)
		report := func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := telegramBot.SendReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("report: %v", err)
			}
		}
		if cfg.ReportTime != "" {
			_, err = scheduler.ScheduleDaily(cfg.ReportTime, report)
		} else {
			_, err = scheduler.ScheduleInterval(cfg.ReportInterval, report)
		}
		if err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()

		log.Println("Wellness bot started.")
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("bot stopped with error: %v", err)
		}
	} else {
		<-ctx.Done()
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
	}
	log.Println("Shutdown complete.")
}
