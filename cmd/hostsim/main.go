// Command hostsim stands in for the CAD host: it owns an in-memory document, applies relay
// commands to it and exports it back to the relay on a timer.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"geometry-relay/internal/config"
	"geometry-relay/internal/host"
	"geometry-relay/internal/models"
	"geometry-relay/internal/relayclient"
)

func main() {
	cfg, err := config.LoadHostConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	project := cfg.ProjectName
	if project == "" {
		project = "Sample Tower"
		log.Printf("Defaulting to project %q", project)
	}
	doc := seedDocument(project)

	dispatcher := host.NewDispatcher(16)
	agent := host.NewAgent(relayclient.New(cfg.RelayURL+"/api", cfg.RequestTimeout), dispatcher, doc)
	agent.CommandInterval = cfg.CommandInterval
	agent.ExportInterval = cfg.ExportInterval
	agent.RequestTimeout = cfg.RequestTimeout

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stop := agent.Start(ctx)
	defer stop()

	log.Printf("Host simulator for %q syncing with %s", project, cfg.RelayURL)
	// The main goroutine owns the document until shutdown.
	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Dispatcher stopped: %v", err)
	}
	log.Println("Host simulator stopped")
}

func seedDocument(project string) *host.MemoryDocument {
	doc := host.NewMemoryDocument(project)
	doc.Insert("Floors", models.Vec3{X: 5, Y: 5, Z: -0.15}, models.Vec3{X: 10, Y: 10, Z: 0.3}, map[string]string{"Level": "Level 1"})
	doc.Insert("Walls", models.Vec3{X: 5, Y: 0, Z: 1.5}, models.Vec3{X: 10, Y: 0.2, Z: 3}, map[string]string{"Type": "Basic Wall"})
	doc.Insert("Walls", models.Vec3{X: 0, Y: 5, Z: 1.5}, models.Vec3{X: 0.2, Y: 10, Z: 3}, map[string]string{"Type": "Basic Wall"})
	doc.Insert("Doors", models.Vec3{X: 5, Y: 0, Z: 1.05}, models.Vec3{X: 0.9, Y: 0.25, Z: 2.1}, nil)
	doc.Insert("Columns", models.Vec3{X: 10, Y: 10, Z: 1.5}, models.Vec3{X: 0.4, Y: 0.4, Z: 3}, nil)
	// Annotation-like element without volume; the exporter drops it.
	doc.Insert("Room Separation Lines", models.Vec3{X: 5, Y: 5}, models.Vec3{X: 10, Y: 0, Z: 0}, nil)
	return doc
}
