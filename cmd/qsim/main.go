package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/theapemachine/qsim"
)

var (
	// Global flags
	numQubits  int
	oracleKind string
	shots      int
	seed       int64
	remoteURL  string
	minWorkers int
	maxWorkers int

	// experiment flags
	trials int
)

var rootCmd = &cobra.Command{
	Use:   "qsim",
	Short: "Deutsch-Jozsa algorithm on a state vector simulator",
	Long: `qsim demonstrates the Deutsch-Jozsa quantum algorithm: given a black-box
Boolean function promised to be either constant or balanced, a single
quantum query decides which, where a classical algorithm may need up to
2^(n-1)+1 evaluations.

Circuits run on the in-process state vector backend by default, or against
a remote simulation service with --remote.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify one randomly drawn oracle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		rng := newRNG()
		oracle, err := buildOracle(rng)
		if err != nil {
			return err
		}

		backend, cleanup, err := buildBackend(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		verdict, result, err := qsim.Run(ctx, backend, oracle, shots)
		if err != nil {
			return err
		}

		printCounts(result.Counts)
		fmt.Printf("Result: %s\n", verdict)
		return nil
	},
}

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Grade the classifier over many random oracles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		backend, cleanup, err := buildBackend(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		exp := qsim.NewExperiment("cli", numQubits, shots, seed)
		exp.OnTrial = func(rec qsim.TrialRecord) {
			status := "ok"
			if !rec.Correct {
				status = "MISCLASSIFIED"
			}
			fmt.Printf("trial %3d  %-8s -> %-8s  %s  (%v)\n",
				rec.Sequence, rec.Kind, rec.Verdict, status, rec.Latency.Round(time.Microsecond))
		}

		summary, err := exp.RunTrials(ctx, backend, trials)
		if err != nil {
			return err
		}

		fmt.Printf("\ntrials: %d  correct: %d  success rate: %.1f%%\n",
			summary.Trials, summary.Correct, summary.SuccessRate*100)
		fmt.Printf("latency: mean %v, stddev %v\n",
			summary.MeanLatency.Round(time.Microsecond),
			summary.StdDevLatency.Round(time.Microsecond))
		return nil
	},
}

var qasmCmd = &cobra.Command{
	Use:   "qasm",
	Short: "Dump the assembled Deutsch-Jozsa circuit as OpenQASM 2.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		oracle, err := buildOracle(newRNG())
		if err != nil {
			return err
		}

		circuit, err := qsim.BuildDeutschJozsa(oracle)
		if err != nil {
			return err
		}

		qasm, err := circuit.ToQASM()
		if err != nil {
			return err
		}
		fmt.Print(qasm)
		return nil
	},
}

func buildOracle(rng *rand.Rand) (*qsim.Instruction, error) {
	switch oracleKind {
	case "constant", "c":
		return qsim.ConstantOracle(numQubits, rng)
	case "balanced", "b":
		return qsim.BalancedOracle(numQubits, rng)
	case "random":
		inst, kind, err := qsim.RandomOracle(numQubits, rng)
		if err == nil {
			fmt.Printf("Drew a %s oracle\n", kind)
		}
		return inst, err
	default:
		return nil, fmt.Errorf("invalid oracle type %q (want constant, balanced or random)", oracleKind)
	}
}

func buildBackend(ctx context.Context) (qsim.Backend, func(), error) {
	if remoteURL != "" {
		backend := qsim.NewRemoteBackend(&qsim.RemoteConfig{BaseURL: remoteURL})
		return backend, func() {}, nil
	}

	config := qsim.NewConfig()
	config.Seed = seed
	if minWorkers > 0 {
		config.MinWorkers = minWorkers
	}
	if maxWorkers > 0 {
		config.MaxWorkers = maxWorkers
	}

	backend := qsim.NewLocalBackend(ctx, config)
	return backend, backend.Close, nil
}

func newRNG() *rand.Rand {
	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(s))
}

func printCounts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("  %s: %d\n", key, counts[key])
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&numQubits, "qubits", "q", 3, "number of input qubits")
	rootCmd.PersistentFlags().IntVarP(&shots, "shots", "s", 1024, "measurement shots per run")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "seed for oracle and measurement randomness (0 = clock)")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "base URL of a remote simulation service")
	rootCmd.PersistentFlags().IntVar(&minWorkers, "min-workers", 0, "minimum pool workers (0 = default)")
	rootCmd.PersistentFlags().IntVar(&maxWorkers, "max-workers", 0, "maximum pool workers (0 = default)")

	runCmd.Flags().StringVarP(&oracleKind, "oracle", "o", "random", "oracle type: constant, balanced or random")
	qasmCmd.Flags().StringVarP(&oracleKind, "oracle", "o", "balanced", "oracle type: constant, balanced or random")
	experimentCmd.Flags().IntVarP(&trials, "trials", "t", 20, "number of graded trials")

	rootCmd.AddCommand(runCmd, experimentCmd, qasmCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
