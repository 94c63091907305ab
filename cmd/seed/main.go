package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"scaledrill/internal/cache"
	"scaledrill/internal/config"
	"scaledrill/internal/model"
	"scaledrill/internal/repository"
	"scaledrill/internal/service"
	"scaledrill/internal/theory"
)

// starterPresets are inserted for the seed host
var starterPresets = []struct {
	name   string
	config model.DrillConfig
}{
	{
		name:   "All keys",
		config: model.NewDrillConfig(theory.DefaultConfig()),
	},
	{
		name: "Flat keys",
		config: model.DrillConfig{
			Roots:   []string{"F", "Bb", "Eb", "Ab", "Db"},
			Modes:   []string{"major", "minor"},
			Degrees: theory.DefaultDegrees,
		},
	},
	{
		name: "Sharp keys - triad tones",
		config: model.DrillConfig{
			Roots:   []string{"G", "D", "A", "E", "B", "F#", "C#"},
			Modes:   []string{"major"},
			Degrees: []int{1, 3, 5},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	hostID := os.Getenv("SEED_HOST_ID")
	if hostID == "" {
		hostID = service.HostIDFor(cfg.HostUsername)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// The server fills the Redis preset cache from Mongo on first use
	presets := service.NewPresetService(repository.NewPresetRepo(db), cache.NewMemoryPresets())

	for _, sp := range starterPresets {
		p, err := presets.Create(ctx, hostID, sp.name, sp.config)
		if err != nil {
			log.Fatalf("Failed to insert preset %q: %v", sp.name, err)
		}
		fmt.Printf("Created preset '%s' with code %s for host '%s'\n", p.Name, p.Code, hostID)
	}
}
