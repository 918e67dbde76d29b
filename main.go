package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/EmpoweredVote/telraam-coverage/internal/config"
	"github.com/EmpoweredVote/telraam-coverage/internal/db"
	"github.com/EmpoweredVote/telraam-coverage/internal/middleware"
	"github.com/EmpoweredVote/telraam-coverage/internal/reports"
	"github.com/EmpoweredVote/telraam-coverage/internal/store"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	gdb, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	runs := store.New(gdb)
	if err := runs.Init(); err != nil {
		log.Fatal("Failed to set up coverage tables: ", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.ServerTiming)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Get("/", RootHandler)
	r.Mount("/coverage", reports.SetupRoutes(runs))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("Server listening on port :%s...", cfg.Port)
	log.Fatal(srv.ListenAndServe())
}
