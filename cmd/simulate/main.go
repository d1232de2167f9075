// Command simulate runs a synthetic two-variant experiment end to end:
// concurrent assignment workers, a conversion funnel with different
// rates per arm, and a final evaluation with an optional xlsx report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"golang.org/x/sync/errgroup"

	"gosplit/adapters/excel"
	"gosplit/domain/core"
	"gosplit/internal/testkit"
)

func main() {
	users := flag.Int("users", 10000, "synthetic population size")
	workers := flag.Int("workers", 8, "concurrent assignment workers")
	controlRate := flag.Float64("control-rate", 0.10, "control conversion rate")
	treatmentRate := flag.Float64("treatment-rate", 0.12, "treatment conversion rate")
	report := flag.String("report", "", "optional xlsx report path")
	flag.Parse()

	if err := run(*users, *workers, *controlRate, *treatmentRate, *report); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
}

func run(users, workers int, controlRate, treatmentRate float64, reportPath string) error {
	ctx := context.Background()

	kit, err := testkit.New(ctx)
	if err != nil {
		return err
	}

	def := testkit.TwoVariantDefinition("simulated signup flow", "signup")
	testID, err := kit.Core.CreateExperiment(ctx, def)
	if err != nil {
		return err
	}
	if err := kit.Core.StartExperiment(ctx, testID); err != nil {
		return err
	}

	exp, err := kit.Core.GetExperiment(ctx, testID)
	if err != nil {
		return err
	}
	rates := make(map[core.VariantID]float64, 2)
	for _, v := range exp.Variants {
		if v.IsControl {
			rates[v.ID] = controlRate
		} else {
			rates[v.ID] = treatmentRate
		}
	}

	population := testkit.NewPopulation(42).Users(users)

	// Concurrent assignment and tracking against one experiment, the
	// same shape as production traffic.
	g, gctx := errgroup.WithContext(ctx)
	chunk := (users + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, users)
		seed := int64(1000 + w)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed))
			for _, userID := range population[start:end] {
				variantID, assigned, err := kit.Core.Assign(gctx, userID, testID)
				if err != nil {
					return err
				}
				if !assigned {
					continue
				}
				if err := kit.Core.TrackEvent(gctx, userID, testID, "exposure", 1, nil); err != nil {
					return err
				}
				if rng.Float64() < rates[variantID] {
					if err := kit.Core.TrackEvent(gctx, userID, testID, "signup", 1, nil); err != nil {
						return err
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	results, err := kit.Core.StopExperiment(ctx, testID, "simulation complete")
	if err != nil {
		return err
	}

	fmt.Printf("participants: %d\n", results.ParticipantCount)
	for _, vr := range results.Variants {
		mr := vr.Metrics["signup"]
		fmt.Printf("%-10s rate=%.4f p=%.4f improvement=%+.2f%% significant=%t\n",
			vr.Name, mr.Value, mr.PValue, mr.ImprovementPct, mr.SignificantlyDifferent)
	}
	fmt.Printf("recommendation: %s\n", results.Summary.Recommendation)

	if reportPath != "" {
		exp, err := kit.Core.GetExperiment(ctx, testID)
		if err != nil {
			return err
		}
		if err := excel.NewReportWriter(reportPath).Write(exp, results); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "report written to %s\n", reportPath)
	}
	return nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
