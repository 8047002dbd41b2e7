package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	qp "github.com/goqp/goqp"
)

var (
	flagIterations int
	flagTimeLimit  time.Duration
	flagPricing    string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "qpsolve <model.yaml>",
	Short: "Solve a linear or convex quadratic program with the active-set method",
	Args:  cobra.ExactArgs(1),
	RunE:  runSolve,
}

func init() {
	rootCmd.Flags().IntVar(&flagIterations, "iterations", 10000, "iteration limit")
	rootCmd.Flags().DurationVar(&flagTimeLimit, "time-limit", 0, "wall-clock limit (0 = none)")
	rootCmd.Flags().StringVar(&flagPricing, "pricing", "devex", "pricing rule: dantzig|devex|devex-harris|steepest-edge")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "print progress snapshots")
}

// progressPrinter is the injected statistics sink.
type progressPrinter struct{}

func (progressPrinter) Progress(p qp.Progress) {
	fmt.Printf("iter %6d  obj %14.6g  active %4d  nullspace %4d  density %.2f  elapsed %s\n",
		p.Iteration, p.ObjectiveValue, p.ActiveSetSize, p.NullspaceDimension, p.FactorDensity, p.Elapsed.Round(time.Millisecond))
}

func pricingRule(name string) (qp.PricingRule, error) {
	switch name {
	case "dantzig":
		return qp.PricingDantzig, nil
	case "devex":
		return qp.PricingDevex, nil
	case "devex-harris":
		return qp.PricingDevexHarris, nil
	case "steepest-edge":
		return qp.PricingSteepestEdge, nil
	}
	return 0, fmt.Errorf("unknown pricing rule %q", name)
}

func runSolve(cmd *cobra.Command, args []string) error {
	inst, names, err := loadModel(args[0])
	if err != nil {
		return err
	}

	settings := qp.DefaultSettings()
	settings.IterationLimit = flagIterations
	settings.TimeLimit = flagTimeLimit
	if settings.Pricing, err = pricingRule(flagPricing); err != nil {
		return err
	}

	var monitor qp.Monitor
	if flagVerbose {
		monitor = progressPrinter{}
	}

	solver, err := qp.NewSolver(inst, settings, monitor)
	if err != nil {
		return err
	}
	result, err := solver.Solve()
	if err != nil {
		return err
	}

	fmt.Printf("status:     %s\n", result.Status)
	fmt.Printf("iterations: %d (%s)\n", result.Iterations, result.Elapsed.Round(time.Microsecond))
	if result.Status == qp.StatusInfeasible || result.Status == qp.StatusUnbounded {
		return nil
	}
	fmt.Printf("objective:  %.10g\n", result.ObjectiveValue)
	for j, name := range names {
		fmt.Printf("  %-12s = %14.8g   (dual %.8g)\n", name, result.X[j], result.DualVar[j])
	}
	for i := range result.DualCon {
		fmt.Printf("  row %-8d = %14.8g   (dual %.8g)\n", i, result.RowActivity[i], result.DualCon[i])
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
