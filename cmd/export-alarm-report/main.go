package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/config"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/report"
	"github.com/Andre2404/Digital-Twin-Predictive-Maintenance-for-electric-motors/internal/repository"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	// Parse command line arguments
	var motorID = flag.String("motor", "", "Filter by motor ID (e.g., 'motor-1')")
	var status = flag.String("status", "", "Filter by alarm status ('active' or 'cleared')")
	var since = flag.String("since", "", "Only events triggered at or after this time (RFC3339, e.g., '2025-03-01T00:00:00Z')")
	var until = flag.String("until", "", "Only events triggered at or before this time (RFC3339)")
	var limit = flag.Int("limit", 0, "Maximum number of events (0 = no limit)")
	var output = flag.String("out", "alarm-report.xlsx", "Output file path")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	// Build filters
	filters := repository.AlertEventFilters{Limit: *limit}
	if *motorID != "" {
		filters.MotorID = motorID
	}
	if *status != "" {
		filters.AlarmStatus = status
	}
	if *since != "" {
		t, err := time.Parse(time.RFC3339, *since)
		if err != nil {
			log.Fatalf("Invalid -since value: %v", err)
		}
		filters.StartTime = &t
	}
	if *until != "" {
		t, err := time.Parse(time.RFC3339, *until)
		if err != nil {
			log.Fatalf("Invalid -until value: %v", err)
		}
		filters.EndTime = &t
	}

	repo := repository.NewAlertEventsRepository(db, zap.NewNop())

	events, err := repo.ListAlertEvents(context.Background(), filters)
	if err != nil {
		log.Fatalf("Failed to list alert events: %v", err)
	}

	data, err := report.GenerateAlertReport(events)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	if err := os.WriteFile(*output, data, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *output, err)
	}

	fmt.Printf("Exported %d events to %s\n", len(events), *output)
}
