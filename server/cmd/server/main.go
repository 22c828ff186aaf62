package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/automoto/tickstage/config"
	"github.com/automoto/tickstage/server/core"
	"github.com/automoto/tickstage/storage"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load environment: %v", err)
	}
	sc := config.Server

	port := flag.Uint("port", sc.Port, "Server port")
	tickRate := flag.Int("tickrate", sc.TickRate, "Relay tick rate (ticks per second)")
	name := flag.String("name", sc.Name, "Server display name")
	version := flag.String("version", sc.Version, "Required client version (empty = accept any)")
	timestampEvery := flag.Int("timestamp-every", sc.TimestampEvery, "Ticks between timestamp events (0 = off)")
	dbPath := flag.String("db", sc.DBPath, "SQLite file for player session counts (empty = off)")
	flag.Parse()

	var store storage.Store
	if *dbPath != "" {
		s, err := storage.OpenSQLite(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", *dbPath, err)
		}
		store = s
	}

	server := core.NewServer(core.ServerParams{
		RelayParams: core.RelayParams{
			Version:        *version,
			TimestampEvery: *timestampEvery,
			Store:          store,
		},
		TickRate: *tickRate,
		Name:     *name,
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down server...")
		server.Stop()
		if store != nil {
			_ = store.Close()
		}
		os.Exit(0)
	}()

	log.Printf("Starting relay %q on port %d (tick rate: %d/s, version: %s)",
		*name, *port, *tickRate, *version)
	if err := server.Start(*port); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
