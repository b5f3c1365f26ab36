package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/hybridsim/internal/automation"
	"github.com/san-kum/hybridsim/internal/storage"
	"github.com/spf13/cobra"
)

var (
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	trials     int
	perturb    float64
	seed       uint64
)

func batchCommands(scenarioFlags func(*cobra.Command)) []*cobra.Command {
	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a yaml script of scenario steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	scriptCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "run a scenario across a range of one parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	scenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "tuning.bounce", "parameter: "+strings.Join(automation.Params(), ", "))
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of runs")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [preset]",
		Short: "run a scenario with randomly perturbed starting positions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	scenarioFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "maximum offset per axis")
	mcCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")

	return []*cobra.Command{scriptCmd, sweepCmd, mcCmd}
}

func runScript(cmd *cobra.Command, args []string) error {
	script, err := automation.LoadScript(args[0])
	if err != nil {
		return err
	}
	r := &automation.Runner{Logger: logger}
	if !noSave {
		r.Store = storage.New(dataDir)
		if err := r.Store.Init(); err != nil {
			return err
		}
	}

	results, err := r.RunScript(cmd.Context(), script)
	for _, res := range results {
		fmt.Printf("%-20s ticks=%-6d transitions=%-3d %s\n", res.Name, res.Result.Ticks, res.Result.Transitions, res.RunID)
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	r := &automation.Runner{Logger: logger}
	results, err := r.RunSweep(cmd.Context(), cfg, automation.Sweep{
		Param: sweepParam,
		Min:   sweepMin,
		Max:   sweepMax,
		Steps: sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tKE\tDRIFT\tCONSTRAINT\tTRANSITIONS\tERROR\n", strings.ToUpper(sweepParam))
	for _, res := range results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		m := res.Metrics
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.4g\t%.0f\t%s\n", res.Value,
			m["kinetic_energy"], m["energy_drift"], m["constraint_error"], m["transitions"], errText)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	r := &automation.Runner{Logger: logger}
	results, err := r.RunMonteCarlo(cmd.Context(), cfg, automation.MonteCarlo{
		Perturbation: perturb,
		Trials:       trials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.Stats(results)
	fmt.Printf("%s: %d trials, %d stable, %d unstable\n", cfg.Name, len(results), stable, unstable)
	return nil
}
