package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"resumerank-engine/internal/domain"
	"resumerank-engine/internal/extract"
	"resumerank-engine/internal/metrics"
	"resumerank-engine/internal/pipeline"
	"resumerank-engine/internal/rank"
)

var rankCmd = &cobra.Command{
	Use:   "rank <file|dir>...",
	Short: "Rank resume files from the command line",
	Long: `Rank reads .txt, .md and .html resumes (directories are read one level
deep), scores them as one batch and prints the ranking best first. Files
that cannot be read are reported and skipped. The run is stored in the
data dir unless --no-save is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringToString("weight", nil, "weight override, e.g. --weight partial=0.5,penalty=0")
	rankCmd.Flags().Bool("json", false, "output the ranking as JSON")
	rankCmd.Flags().Bool("no-save", false, "do not store the run")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	weights, _ := cmd.Flags().GetStringToString("weight")
	asJSON, _ := cmd.Flags().GetBool("json")
	noSave, _ := cmd.Flags().GetBool("no-save")

	a, err := loadApp(!noSave)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, skipped, err := collectDocuments(args)
	if err != nil {
		return err
	}
	for _, s := range skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", s.path, s.err)
	}
	if len(docs) == 0 {
		return errors.New("no readable documents")
	}

	svc := pipeline.New(rank.New(a.cfg.Scoring, a.logger), nil, nil, nil, a.logger)
	if a.db != nil {
		svc.DB = a.db.Pool
	}

	overrides := make(map[string]any, len(weights))
	for k, v := range weights {
		overrides[k] = v
	}

	res, err := svc.Rank(cmd.Context(), "", metrics.SourceCLI, docs, overrides)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSONTo(out, res)
	}
	printRanking(out, res.Ranking)
	if res.Run.ID != "" {
		fmt.Fprintf(out, "\nrun %s\n", res.Run.ID)
	}
	return nil
}

type skippedPath struct {
	path string
	err  error
}

// collectDocuments expands directories one level deep and extracts every
// supported file. Paths are processed in argument order, directory entries
// in name order, so the batch order is stable.
func collectDocuments(args []string) ([]domain.Document, []skippedPath, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, nil, err
		}
		var names []string
		for _, e := range entries {
			if e.Type().IsRegular() && extract.Supported(e.Name()) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, n := range names {
			paths = append(paths, filepath.Join(arg, n))
		}
	}

	var docs []domain.Document
	var skipped []skippedPath
	for _, p := range paths {
		doc, err := extract.FromFile(p)
		if err != nil {
			skipped = append(skipped, skippedPath{path: p, err: err})
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped, nil
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
