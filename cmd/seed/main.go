package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fitledger/backend/internal/catalog"
	"github.com/fitledger/backend/internal/config"
	"github.com/fitledger/backend/internal/db"
)

// starter catalog entries, inserted once on a fresh database
var starterExercises = []catalog.Exercise{
	{Name: "Push Up", Description: "A basic upper body exercise", Category: "strength", MuscleGroup: "chest"},
	{Name: "Squat", Description: "A lower body exercise", Category: "strength", MuscleGroup: "legs"},
	{Name: "Lunges", Description: "A lower body exercise", Category: "strength", MuscleGroup: "legs"},
	{Name: "Plank", Description: "Core stability exercise", Category: "strength", MuscleGroup: "core"},
	{Name: "Burpees", Description: "Full body exercise", Category: "cardio", MuscleGroup: "full body"},
	{Name: "Jumping Jacks", Description: "Cardio exercise", Category: "cardio", MuscleGroup: "full body"},
	{Name: "Bicep Curl", Description: "Upper body exercise", Category: "strength", MuscleGroup: "arms"},
	{Name: "Tricep Dips", Description: "Upper body exercise", Category: "strength", MuscleGroup: "arms"},
	{Name: "Deadlift", Description: "Lower body exercise", Category: "strength", MuscleGroup: "legs"},
	{Name: "Yoga", Description: "Flexibility exercise", Category: "flexibility", MuscleGroup: "full body"},
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost: cfg.PostgresHost,
		DBPort: cfg.PostgresPort,
		DBName: cfg.PostgresDBName,
	})
	if err != nil {
		log.Fatalf("new db pool: %s", err)
	}
	defer dbPool.Close()

	repo := catalog.NewRepo(dbPool)
	now := time.Now()
	for _, exercise := range starterExercises {
		exercise.CreatedAt = now
		added, err := repo.Add(ctx, exercise)
		if err != nil {
			log.Fatalf("seed exercise [%s]: %s", exercise.Name, err)
		}
		log.Infof("seeded exercise [%s] with id %d", added.Name, added.ID)
	}

	log.Infoln("exercises seeded successfully")
}
