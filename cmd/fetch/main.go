package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/config"
	"github.com/EmpoweredVote/telraam-coverage/internal/coverage"
	"github.com/EmpoweredVote/telraam-coverage/internal/rawdata"
	"github.com/EmpoweredVote/telraam-coverage/internal/sensors"
	"github.com/EmpoweredVote/telraam-coverage/internal/telraam"
	"github.com/joho/godotenv"
)

func main() {
	var (
		start       = flag.String("start", "", "first day to fetch, YYYY-MM-DD (required)")
		end         = flag.String("end", "", "day after the last day to fetch, YYYY-MM-DD (default: today)")
		level       = flag.String("level", telraam.LevelInstances, "report level: instances or segments")
		workers     = flag.Int("workers", 2, "concurrent report requests")
		sensorsFile = flag.Bool("sensors-file", false, "regenerate sensors.yaml from the configured segments first")
		active      = flag.Bool("active", false, "list active segments and cameras, then exit")
	)
	flag.Parse()
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	client := telraam.NewClient(cfg.Token, cfg.CamerasURL, cfg.ReportsURL, cfg.RateLimit)

	if *active {
		if err := listActive(ctx, client, cfg.SegmentIDs); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *sensorsFile {
		if _, err := sensors.WriteSensorsFile(ctx, client, cfg.SegmentIDs, cfg.ConfigDir); err != nil {
			log.Fatalf("write sensors file: %v", err)
		}
	}

	if *start == "" {
		flag.Usage()
		os.Exit(2)
	}
	from, err := time.Parse(coverage.DayLayout, *start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if *end != "" {
		if to, err = time.Parse(coverage.DayLayout, *end); err != nil {
			log.Fatalf("invalid -end: %v", err)
		}
	}
	if !to.After(from) {
		log.Fatal("-end must be after -start")
	}

	var ids []int64
	switch *level {
	case telraam.LevelSegments:
		ids = cfg.SegmentIDs
	case telraam.LevelInstances:
		table, err := sensors.LoadSensors(cfg.ConfigDir)
		if err != nil {
			log.Fatalf("load sensors (run with -sensors-file first?): %v", err)
		}
		for _, s := range table {
			ids = append(ids, s.InstanceID)
		}
	default:
		log.Fatalf("unknown -level %q", *level)
	}
	if len(ids) == 0 {
		log.Fatal("nothing to fetch")
	}

	records, err := telraam.FetchAll(ctx, client, ids, *level, from, to, *workers)
	if err != nil {
		log.Fatal(err)
	}

	out := filepath.Join(cfg.DataDir, fmt.Sprintf("traffic_%s_%s_%s.csv", *level, from.Format(coverage.DayLayout), to.Format(coverage.DayLayout)))
	if err := rawdata.WriteCSV(out, records); err != nil {
		log.Fatalf("write %s: %v", out, err)
	}
	log.Printf("wrote %d rows for %d ids to %s", len(records), len(ids), out)
}

func listActive(ctx context.Context, client *telraam.Client, segmentIDs []int64) error {
	active, err := client.ActiveSegments(ctx, time.Time{})
	if err != nil {
		return err
	}
	cameras, err := client.Cameras(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d active segments, %d active cameras\n", len(active), len(cameras))

	for _, id := range segmentIDs {
		cameras, err := telraam.ActiveCameras(ctx, client, id)
		if err != nil {
			return err
		}
		fmt.Printf("segment %d:", id)
		for version, c := range cameras {
			fmt.Printf(" %s=%d (added %s)", version, c.ID, c.TimeAdded)
		}
		fmt.Println()
	}
	return nil
}
