package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"resumerank-engine/internal/domain"
	"resumerank-engine/internal/store"
)

func printRanking(w io.Writer, r domain.Ranking) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tRAW\tFILE\tPARTIAL\tRELATIVE\tPENALTY\tCONSISTENCY\tDUPLICATE\tCLOSEST")
	for _, rec := range r.Records {
		b := rec.Breakdown
		closest := "-"
		if rec.ClosestPeer != "" {
			closest = fmt.Sprintf("%s (%.2f)", rec.ClosestPeer, rec.ClosestSimilarity)
		}
		if rec.ExcludedFromCorpus {
			closest = "excluded"
		}
		fmt.Fprintf(tw, "%d\t%d\t%.4f\t%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%s\n",
			rec.Rank, rec.FinalScore, rec.RawScore, rec.Filename,
			b.Partial, b.Relative, b.Penalty, b.Consistency, b.Duplicate, closest)
	}
	_ = tw.Flush()

	wt := r.Weights
	fmt.Fprintf(w, "\nweights: partial=%.3f relative=%.3f penalty=%.3f consistency=%.3f duplicate=%.3f\n",
		wt.Partial, wt.Relative, wt.Penalty, wt.Consistency, wt.Duplicate)
	if r.Stats.Degenerate {
		fmt.Fprintln(w, "all raw scores are equal; every document gets the midpoint score")
	}
	for _, is := range r.Issues {
		fmt.Fprintf(w, "warning: %s\n", is.Message)
	}
}

func printRuns(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSOURCE\tDOCS\tTOP")
	for _, r := range runs {
		top := "-"
		if r.TopFilename != "" {
			top = fmt.Sprintf("%s (%d)", r.TopFilename, r.TopScore)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Source, r.Documents, top)
	}
	_ = tw.Flush()
}
