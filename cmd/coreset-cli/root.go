// Package cli is a thin Cobra front-end over the coreset library, wiring
// the choices the original Rust binaries exposed (mnist_fashion's --algo,
// here one subcommand per engine; hnswcore's --beta/--gamma flags) onto the
// three engines. The CLI is an external
// collaborator per spec §1 — none of its parsing logic is part of the core
// — but the demo itself exercises the library the way the teacher repo's
// own cmd/root.go exercises sim.
package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/streamcoreset/coreset/coreset"
	"github.com/streamcoreset/coreset/coreset/assemble"
	"github.com/streamcoreset/coreset/coreset/bmor"
	"github.com/streamcoreset/coreset/coreset/mp"
)

var (
	dataPath     string
	distanceKind string
	k            int
	n            int
	beta         float64
	gamma        float64
	alpha        float64
	sampleSize   int
	seed         int64
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "coreset-cli",
	Short: "Build coresets and facility-location summaries over a CSV point set",
}

var bmorCmd = &cobra.Command{
	Use:   "bmor",
	Short: "Run streaming BMOR facility location",
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()
		distance, err := buildDistance()
		if err != nil {
			return err
		}
		engine, err := bmor.New(k, n, beta, gamma, distance)
		if err != nil {
			return err
		}
		engine = engine.WithSeed(coreset.NewSeed(seed))

		producer := coreset.NewCSVProducer(dataPath)
		state, err := engine.ProcessWeightedStream(producer)
		if err != nil {
			return err
		}
		registry, err := engine.EndData(state, false)
		if err != nil {
			return err
		}
		state.LogSummary()
		logrus.Infof("bmor: %d facilities opened", registry.Len())
		return nil
	},
}

var mpCmd = &cobra.Command{
	Use:   "mp",
	Short: "Run batch Mettu-Plaxton facility location",
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()
		distance, err := buildDistance()
		if err != nil {
			return err
		}
		producer := coreset.NewCSVProducer(dataPath)
		batch, ok, err := producer.NextBatch()
		if err != nil {
			return err
		}
		if !ok {
			logrus.Warn("mp: empty input")
			return nil
		}
		engine := mp.New(batch.Points, batch.IDs, distance)
		// MettuPlaxton.New's argument order documented in spec §6 is
		// (points, distance); the CSV loader yields ids alongside
		// points, so the ids slice is threaded through as the data_id
		// source for each opened facility.
		registry, err := engine.ConstructCenters(alpha)
		if err != nil {
			return err
		}
		if _, err := engine.ComputeDistances(registry); err != nil {
			return err
		}
		logrus.Infof("mp: %d facilities opened", registry.Len())
		return nil
	},
}

var coresetCmd = &cobra.Command{
	Use:   "coreset",
	Short: "Assemble a weighted coreset via BMOR + sampling",
	RunE: func(cmd *cobra.Command, args []string) error {
		setLogLevel()
		distance, err := buildDistance()
		if err != nil {
			return err
		}
		engine, err := assemble.New(k, n, beta, gamma, distance)
		if err != nil {
			return err
		}
		engine = engine.WithSeed(coreset.NewSeed(seed))

		producer := coreset.NewCSVProducer(dataPath)
		cs, err := engine.MakeCoreset(producer, sampleSize)
		if err != nil {
			return err
		}
		logrus.Infof("coreset: sampled %d of %d points", cs.Len(), cs.GetNbPoints())
		return nil
	},
}

func buildDistance() (coreset.Distance[float64], error) {
	switch distanceKind {
	case "l1":
		return coreset.L1[float64]{}, nil
	case "l2", "":
		return coreset.L2[float64]{}, nil
	default:
		return nil, fmt.Errorf("unknown distance kind %q; valid options: l1, l2", distanceKind)
	}
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataPath, "data", "", "path to a CSV file of (id, coordinates) rows")
	rootCmd.PersistentFlags().StringVar(&distanceKind, "distance", "l2", "distance kind: l1 or l2")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", int64(coreset.DefaultSeed), "RNG seed")

	bmorCmd.Flags().IntVar(&k, "k", 10, "target number of centers")
	bmorCmd.Flags().IntVar(&n, "n", 10000, "expected cardinality bound")
	bmorCmd.Flags().Float64Var(&beta, "beta", 2.0, "phase cost growth factor")
	bmorCmd.Flags().Float64Var(&gamma, "gamma", 2.0, "facility-count/cost slackness")

	mpCmd.Flags().Float64Var(&alpha, "alpha", mp.DefaultAlpha, "MP separation factor in (0,1]")

	coresetCmd.Flags().IntVar(&k, "k", 10, "target number of centers")
	coresetCmd.Flags().IntVar(&n, "n", 10000, "expected cardinality bound")
	coresetCmd.Flags().Float64Var(&beta, "beta", 2.0, "phase cost growth factor")
	coresetCmd.Flags().Float64Var(&gamma, "gamma", 2.0, "facility-count/cost slackness")
	coresetCmd.Flags().IntVar(&sampleSize, "sample-size", 1000, "target coreset size")

	rootCmd.AddCommand(bmorCmd, mpCmd, coresetCmd)
}
