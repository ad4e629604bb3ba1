package main

import (
	"context"
	"flag"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/qs3c/sub_billing_server/config"
	"github.com/qs3c/sub_billing_server/internal/database"
	"github.com/qs3c/sub_billing_server/internal/pkg/logger"
	"github.com/qs3c/sub_billing_server/internal/pkg/stat"
	"github.com/qs3c/sub_billing_server/internal/repository"
	"github.com/qs3c/sub_billing_server/internal/service"
)

var (
	date     = flag.String("date", "", "Stat window to flush, YYYY-MM-DD (default today)")
	previous = flag.Bool("previous", false, "Also flush the day before the window")
	dryRun   = flag.Bool("dry-run", false, "Only print the accumulated stats, don't write them")
)

func main() {
	flag.Parse()

	// 加载配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup(cfg.Log)

	window := stat.DayStart(time.Now())
	if *date != "" {
		window, err = time.ParseInLocation("2006-01-02", *date, time.Local)
		if err != nil {
			log.Fatalf("Invalid date %q: %v", *date, err)
		}
	}
	windows := []time.Time{window}
	if *previous {
		windows = append(windows, window.AddDate(0, 0, -1))
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}

	ctx := context.Background()

	if *dryRun {
		for _, w := range windows {
			acc := stat.New(rdb, w)
			users, err := acc.GetStatUser(ctx)
			if err != nil {
				log.Fatalf("Failed to read user stats: %v", err)
			}
			servers, err := acc.GetStatServer(ctx)
			if err != nil {
				log.Fatalf("Failed to read server stats: %v", err)
			}
			log.WithFields(log.Fields{
				"window":  w.Format("2006-01-02"),
				"users":   len(users),
				"servers": len(servers),
			}).Info("DRY RUN - stats not written")
		}
		return
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	statService := service.NewStatService(repository.NewStore(db), rdb)
	for _, w := range windows {
		if err := statService.Flush(ctx, w); err != nil {
			log.Fatalf("Failed to flush window %s: %v", w.Format("2006-01-02"), err)
		}
	}
	log.Info("Stat flush completed")
}
