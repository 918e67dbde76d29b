package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/store"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

var (
	dsn     = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	days    = flag.Int("days", 90, "Delete runs older than this many days")
	confirm = flag.Bool("confirm", false, "Required to delete anything")
)

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		*dsn = os.Getenv("DATABASE_URL")
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if *days < 1 {
		fatalf("--days must be at least 1")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -*days)
	if !*confirm {
		fmt.Printf("Would delete runs created before %s. Add --confirm to proceed.\n", cutoff.Format(time.RFC3339))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	n, err := store.PurgeRuns(ctx, db, cutoff)
	if err != nil {
		fatalf("purge: %v", err)
	}
	fmt.Printf("Deleted %d runs created before %s\n", n, cutoff.Format(time.RFC3339))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}
