// Command history prints predictions recorded by the scorer.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"student-predictor/internal/ml"
	"student-predictor/internal/storage"
)

func main() {
	dataPath := flag.String("data", "./data", "Data directory path")
	limit := flag.Int("n", 20, "Number of recent predictions to show")
	since := flag.Duration("since", 0, "Only show predictions newer than this, e.g. 24h")
	flag.Parse()

	fmt.Printf("Inspecting predictions in: %s\n", *dataPath)

	store, err := storage.New(*dataPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	total, err := store.Count()
	if err != nil {
		log.Fatalf("Failed to count predictions: %v", err)
	}
	fmt.Printf("Stored predictions: %d\n\n", total)

	var preds []ml.Prediction
	if *since > 0 {
		now := time.Now()
		preds, err = store.GetPredictions(now.Add(-*since), now)
	} else {
		preds, err = store.Recent(*limit)
	}
	if err != nil {
		log.Fatalf("Failed to read predictions: %v", err)
	}

	for _, p := range preds {
		fmt.Printf("%s  %-6s %-8s %-20s %-12s %-9s  math %5.1f  reading %5.1f  writing %5.1f  avg %5.1f\n",
			p.CreatedAt.Format(time.RFC3339), p.Profile.Gender, p.Profile.RaceEthnicity,
			p.Profile.ParentalEducation, p.Profile.Lunch, p.Profile.TestPreparation,
			p.Scores.Math, p.Scores.Reading, p.Scores.Writing, p.Average)
	}
}
