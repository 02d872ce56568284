package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/socialnet/internal/dataset"
	"github.com/vanshika/socialnet/internal/generator"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		users        = flag.Int("users", cfg.NumUsers, "number of users to generate")
		communities  = flag.Int("communities", cfg.Communities, "number of groups friendships are drawn within")
		avgFriends   = flag.Float64("avg-friends", cfg.AvgFriends, "mean in-group friendships started per user")
		bridgeChance = flag.Float64("bridge-chance", cfg.BridgeChance, "probability of a friendship across groups")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		output       = flag.String("output", "seed-data/dataset.json", "dataset file to write (.json, .yaml or .yml)")
		format       = flag.String("stdout-format", "", "write the dataset to stdout in this format (json|yaml) instead of a file")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumUsers:     *users,
		Communities:  *communities,
		AvgFriends:   *avgFriends,
		BridgeChance: clampProbability(*bridgeChance),
		Seed:         *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ds, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *format != "" {
		if err := dataset.Encode(os.Stdout, ds, dataset.Format(*format)); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := dataset.Write(ds, *output); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d users and %d friendships into %s\n", len(ds.Users), len(ds.Friendships), *output)
}

func clampProbability(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
