package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/calder-ai/uniproxy/internal/store/sqlite"
)

func main() {
	dsn := flag.String("db", "uniproxy.db?_journal_mode=WAL", "sqlite DSN")
	limit := flag.Int("limit", 20, "number of recent requests to show")
	days := flag.Int("days", 7, "number of days of daily stats to show")
	flag.Parse()

	repo, err := sqlite.NewSQLiteStorage(*dsn, zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	logs, err := repo.Requests().GetRecent(ctx, *limit)
	if err != nil {
		log.Fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPROVIDER\tMODEL\tENDPOINT\tSTATUS\tLATENCY\tTOKENS IN/OUT\tSTREAMED")
	for _, r := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%dms\t%d/%d\t%v\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.ProviderID, r.ModelID, r.Endpoint,
			r.StatusCode, r.LatencyMS, r.InputTokens, r.OutputTokens, r.IsStreamed,
		)
	}
	w.Flush()

	stats, err := repo.Requests().GetDailyStats(ctx, *days)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println()
	w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tREQUESTS\tTOKENS\tAVG LATENCY")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1fms\n", s.Date, s.TotalRequests, s.TotalTokens, s.AverageLatency)
	}
	w.Flush()
}
