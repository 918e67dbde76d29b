package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/EmpoweredVote/telraam-coverage/internal/civic"
	"github.com/EmpoweredVote/telraam-coverage/internal/config"
	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"github.com/EmpoweredVote/telraam-coverage/internal/db"
	"github.com/EmpoweredVote/telraam-coverage/internal/rawdata"
	"github.com/EmpoweredVote/telraam-coverage/internal/sensors"
	"github.com/EmpoweredVote/telraam-coverage/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	var (
		outDir    = flag.String("out", "reports", "directory for the CSV reports")
		threshold = flag.Float64("threshold", -1, "uptime threshold (default: env UPTIME_THRESHOLD)")
		length    = flag.Int("length", 0, "also write the rows of the best combination of this length")
		persist   = flag.Bool("persist", false, "save the run to DATABASE_URL")
		skipCal   = flag.Bool("skip-calendars", false, "do not fetch holidays and vacations; every row is flagged as ordinary")
	)
	flag.Parse()
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if *threshold >= 0 {
		cfg.Threshold = *threshold
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal(err)
	}

	records, err := rawdata.LoadDir(cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}

	// Missing tables are reported by the pipeline itself.
	sensorTable, segmentTable, err := sensors.LoadTables(cfg.ConfigDir)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	holidays, vacations := coverage.PublicHolidays{}, []coverage.VacationPeriod(nil)
	if *skipCal {
		log.Print("calendars skipped: holiday and vacation flags are not meaningful for this run")
	} else {
		client := civic.NewClient(cfg.VacationsURL, cfg.HolidaysURL, cfg.VacationLocation, loc)
		if holidays, vacations, err = client.Calendars(ctx); err != nil {
			log.Fatalf("load calendars (use -skip-calendars to run without them): %v", err)
		}
	}

	p := coverage.Pipeline{
		Records:   records,
		Sensors:   sensorTable,
		Segments:  segmentTable,
		Holidays:  holidays,
		Vacations: vacations,
		Location:  loc,
	}
	report, err := p.Run(cfg.Threshold)
	if err != nil {
		log.Fatal(err)
	}

	if err := writeReports(*outDir, report); err != nil {
		log.Fatal(err)
	}

	if *length > 0 {
		engine, err := coverage.NewEngine(report.Enriched)
		if err != nil {
			log.Fatal(err)
		}
		details, err := engine.BestCombinationDetails(*length, cfg.Threshold)
		if errors.Is(err, coverage.ErrCombinationNotFound) {
			log.Printf("no detail file: %v", err)
		} else if err != nil {
			log.Fatal(err)
		} else {
			path := filepath.Join(*outDir, fmt.Sprintf("best_combination_%d.csv", *length))
			if err := rawdata.WriteEnriched(path, details); err != nil {
				log.Fatal(err)
			}
		}
	}

	for _, b := range report.Best {
		fmt.Printf("%d segments: %s on %d days\n", b.CombinationLength, b.Combination, b.AvailableDays)
	}

	if *persist {
		gdb, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal(err)
		}
		runs := store.New(gdb)
		if err := runs.Init(); err != nil {
			log.Fatal(err)
		}
		id, err := runs.SaveReport(report)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("saved run %s\n", id)
	}
}

func writeReports(dir string, report *coverage.Report) error {
	steps := []struct {
		name  string
		write func(string) error
	}{
		{"enriched.csv", func(p string) error { return rawdata.WriteEnriched(p, report.Enriched) }},
		{"hourly_availability.csv", func(p string) error { return rawdata.WriteGrid(p, report.HourlyGrid) }},
		{"daily_availability.csv", func(p string) error { return rawdata.WriteGrid(p, report.DailyGrid) }},
		{"combinations.csv", func(p string) error { return rawdata.WriteScores(p, report.Scores) }},
		{"best_combinations.csv", func(p string) error { return rawdata.WriteScores(p, report.Best) }},
	}
	for _, s := range steps {
		path := filepath.Join(dir, s.name)
		if err := s.write(path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	log.Printf("wrote %d reports to %s", len(steps), dir)
	return nil
}
