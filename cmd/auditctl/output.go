package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"lumonew/internal/audit"
	"lumonew/internal/feed"
	"lumonew/internal/models"
	"lumonew/internal/services"
)

const timeLayout = "2006-01-02 15:04:05"

func writeRecords(w io.Writer, records []audit.AnnotatedRecord, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tOPERATION\tTABLE\tRECORD\tUSER\tDESCRIPTION")
	for i := range records {
		rec := &records[i]
		user := rec.UserEmail
		if user == "" && rec.UserID != nil {
			user = *rec.UserID
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.CreatedAt.In(loc).Format(timeLayout),
			rec.Operation,
			rec.TableName,
			rec.RecordID,
			user,
			rec.Description,
		)
	}
	return tw.Flush()
}

func writeStats(w io.Writer, stats models.AuditStatsSummary, source string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%d\n", stats.TotalOperations)
	fmt.Fprintf(tw, "distinct users\t%d\n", stats.DistinctUsers)
	fmt.Fprintf(tw, "deletions\t%d\n", stats.Deletions)
	fmt.Fprintf(tw, "today\t%d\n", stats.Today)

	ops := make([]string, 0, len(stats.ByOperation))
	for op := range stats.ByOperation {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)
	for _, op := range ops {
		fmt.Fprintf(tw, "  %s\t%d\n", op, stats.ByOperation[models.Operation(op)])
	}
	if source == services.StatsLocal {
		fmt.Fprintln(tw, "(summarized from the listed records)")
	}
	return tw.Flush()
}

func writeSnapshot(w io.Writer, snap feed.Snapshot, loc *time.Location) error {
	stamp := "-"
	if snap.UpdatedAt != nil {
		stamp = snap.UpdatedAt.In(loc).Format(timeLayout)
	}
	fmt.Fprintf(w, "== %s (%s)\n", stamp, snap.State)
	if snap.LastError != "" {
		fmt.Fprintf(w, "refresh failed: %s\n", snap.LastError)
	}
	return writeRecords(w, snap.Records, loc)
}
