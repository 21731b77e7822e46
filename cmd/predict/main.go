// Command predict scores one student profile against a running scorer.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"student-predictor/internal/client"
	"student-predictor/internal/features"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	def := features.DefaultProfile()

	url := flag.String("url", "http://localhost:8501", "Scorer base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")
	health := flag.Bool("health", false, "Print the scorer health and exit")
	gender := flag.String("gender", def.Gender, "Gender")
	race := flag.String("race", def.RaceEthnicity, "Race/ethnicity group")
	parental := flag.String("parental", def.ParentalEducation, "Parental level of education")
	lunch := flag.String("lunch", def.Lunch, "Lunch type")
	prep := flag.String("prep", def.TestPreparation, "Test preparation course")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c := client.New(*url, *timeout)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *health {
		h, err := c.Health(ctx)
		if err != nil {
			log.Fatal().Err(err).Str("url", *url).Msg("health check failed")
		}
		printJSON(h)
		if !h.Service.Healthy {
			os.Exit(1)
		}
		return
	}

	p := features.Profile{
		Gender:            *gender,
		RaceEthnicity:     *race,
		ParentalEducation: *parental,
		Lunch:             *lunch,
		TestPreparation:   *prep,
	}
	// Fail locally before a round trip.
	if err := p.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid profile")
	}

	pred, err := c.PredictProfile(ctx, p)
	if err != nil {
		log.Fatal().Err(err).Str("url", *url).Msg("prediction failed")
	}

	fmt.Printf("Math:    %6.1f\n", pred.Scores.Math)
	fmt.Printf("Reading: %6.1f\n", pred.Scores.Reading)
	fmt.Printf("Writing: %6.1f\n", pred.Scores.Writing)
	fmt.Printf("Average: %6.1f (%d%%)\n", pred.Average, pred.Progress)
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("encode failed")
	}
}
