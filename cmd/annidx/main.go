// Command annidx is a small non-persistent demo: it loads vectors from a
// JSON file, builds an in-memory index, and runs a single k-NN query
// against it. It never touches disk for the graph itself, only to read
// the input file — the index is rebuilt from scratch on every run.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xDarkicex/annidx/ann"
	"github.com/xDarkicex/annidx/docid"
	"github.com/xDarkicex/annidx/vector"
)

// vectorFile is the on-disk shape the demo reads: a flat list of named
// float64 vectors.
type vectorFile struct {
	Dimension int         `json:"dimension"`
	Vectors   []namedVec  `json:"vectors"`
}

type namedVec struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		metric string
		m      int
		efc    int
		efs    int
		k      int
	)

	root := &cobra.Command{
		Use:   "annidx <vectors.json> <query-name>",
		Short: "Build an in-memory HNSW index and query it once",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1], metric, m, efc, efs, k)
		},
	}

	root.Flags().StringVar(&metric, "metric", "euclidean", "distance metric: chebyshev|cosine|euclidean|hamming|jaccard|manhattan|pearson")
	root.Flags().IntVar(&m, "m", 16, "HNSW M (max links per node above level 0)")
	root.Flags().IntVar(&efc, "ef-construction", 200, "beam width used while inserting")
	root.Flags().IntVar(&efs, "ef-search", 64, "beam width used while searching")
	root.Flags().IntVar(&k, "k", 5, "number of neighbors to return")

	return root
}

func run(ctx context.Context, path, queryName, metric string, m, efc, efs, k int) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var file vectorFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	idx, err := ann.New[docid.ID](
		ann.WithDimension(file.Dimension),
		ann.WithMetric(ann.Metric(metric)),
		ann.WithHNSW(m, efc, efs),
	)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	alloc := docid.NewAllocator()
	names := make(map[docid.ID]string, len(file.Vectors))
	var query *vector.Vector

	for _, nv := range file.Vectors {
		v := vector.FromFloat64(nv.Values)
		id := alloc.New()
		names[id] = nv.Name
		if err := idx.Insert(ctx, v, id); err != nil {
			return fmt.Errorf("inserting %s: %w", nv.Name, err)
		}
		if nv.Name == queryName {
			query = v
		}
	}

	if query == nil {
		return fmt.Errorf("no vector named %q in %s", queryName, path)
	}

	results, err := idx.Search(ctx, query, k, efs)
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	for i, n := range results {
		labels := make([]string, 0, len(n.Docs))
		for _, d := range n.Docs {
			labels = append(labels, names[d])
		}
		fmt.Printf("%d. dist=%.6f docs=%v\n", i+1, n.Distance, labels)
	}
	return nil
}
