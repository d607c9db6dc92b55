package main

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/eiannone/keyboard"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"chordsim"
)

var (
	interactive bool
	verbose     bool
)

func main() {
	root := &cobra.Command{
		Use:   "chordsim num_nodes num_requests",
		Short: "Simulate Chord lookups and measure hop counts",
		Long: `Chordsim builds a static Chord ring of num_nodes participants, routes
num_requests random key lookups from every participant, and reports the
aggregate hop counts against the log2 N baseline.`,
		Args: cobra.ExactArgs(2),
		RunE: run,
	}

	root.Flags().BoolVarP(&interactive, "interactive", "i", false, "inspect the ring after the simulation")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log cluster internals to stderr")

	// The sweep harness reads stdout; cobra's usage and error output belong
	// there too so argument failures stay field-parseable.
	root.SetOut(os.Stdout)
	root.SetErr(os.Stdout)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	numNodes, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("num_nodes and num_requests must be positive integers")
	}
	numRequests, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("num_nodes and num_requests must be positive integers")
	}
	if numNodes < 1 || numRequests < 1 {
		return fmt.Errorf("num_nodes and num_requests must be positive integers")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))
	logger = logger.With("run", uuid.NewString())

	fmt.Printf("Chord lookup simulation: %d nodes, %d requests per node\n", numNodes, numRequests)

	cluster, err := chordsim.NewCluster(numNodes, chordsim.WithLogger(logger))
	if err != nil {
		return err
	}
	defer cluster.Shutdown()

	if err := cluster.Init(); err != nil {
		// Abandon the run gracefully; only argument errors exit non-zero.
		fmt.Printf("Initialization failed: %v\n", err)
		return nil
	}
	fmt.Printf("Ring initialized, starting lookups...\n")

	report, err := cluster.Run(numRequests)
	if err != nil {
		fmt.Printf("Simulation failed: %v\n", err)
		return nil
	}
	report.WriteTo(os.Stdout)

	if interactive {
		if err := inspect(cluster); err != nil {
			logger.Error("interactive mode ended", "err", err)
		}
	}
	return nil
}

// inspect drives the ring by hand after the measured run: single keys dump
// ring info, a random node's finger table, or issue one ad-hoc lookup.
func inspect(cluster *chordsim.Cluster) error {
	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("initializing keyboard: %w", err)
	}
	defer keyboard.Close()

	fmt.Println("\nInteractive mode: [i]nfo  [f]ingers  [l]ookup  [q]uit")
	ids := cluster.NodeIDs()
	ring := uint64(1) << uint(cluster.RingBits())

	for {
		char, key, err := keyboard.GetKey()
		if err != nil {
			return err
		}
		if key == keyboard.KeyEsc || char == 'q' {
			return nil
		}

		switch char {
		case 'i':
			count, err := cluster.NodeCount()
			if err != nil {
				fmt.Println("info failed:", err)
				continue
			}
			fmt.Println("========== INFO ==========")
			fmt.Printf("Nodes: %d\nBits: %d\nFirst: %d\nLast: %d\n", count, cluster.RingBits(), ids[0], ids[len(ids)-1])
			fmt.Println("==========================")
		case 'f':
			id := ids[rand.IntN(len(ids))]
			fingers, err := cluster.FingerTable(id)
			if err != nil {
				fmt.Println("fingers failed:", err)
				continue
			}
			fmt.Printf("===== FINGERS of %d =====\n", id)
			for i, fid := range fingers {
				fmt.Printf("[%d] = %d\n", i, fid)
			}
			fmt.Println("==========================")
		case 'l':
			target := rand.Uint64N(ring)
			from := ids[rand.IntN(len(ids))]
			res, err := cluster.Lookup(target, from)
			if err != nil {
				fmt.Println("lookup failed:", err)
				continue
			}
			fmt.Printf("lookup %d from %d -> node %d in %d hops\n", target, from, res.FoundAt, res.Hops)
		}
	}
}
