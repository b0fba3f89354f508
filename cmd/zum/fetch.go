package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/j-veylop/zai-usage-monitor/internal/models"
	"github.com/j-veylop/zai-usage-monitor/internal/services"
	"github.com/j-veylop/zai-usage-monitor/internal/tray"
)

func newFetchCommand() *cobra.Command {
	var (
		asJSON  bool
		asTray  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch usage once and print it",
		Long:  "Run one orchestrated fetch of model usage, tool usage and quota limits and print the snapshot.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON && asTray {
				return fmt.Errorf("--json and --tray are mutually exclusive")
			}

			rt, cfg, logCloser, err := loadRuntime(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logCloser.Close() }()

			mgr, err := services.NewManager(services.OptionsFrom(rt, cfg))
			if err != nil {
				return fmt.Errorf("failed to initialize services: %w", err)
			}
			defer func() { _ = mgr.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			data, err := mgr.GetUsageData(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, data)
			case asTray:
				return writeTray(out, data, time.Now())
			default:
				return writeSummary(out, data, mgr.Projections(), time.Now())
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	cmd.Flags().BoolVar(&asTray, "tray", false, "print the tray title and tooltip")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall fetch timeout")

	return cmd
}

func writeJSON(w io.Writer, data *models.AllUsageData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func writeTray(w io.Writer, data *models.AllUsageData, now time.Time) error {
	d, ok := tray.Render(data, now)
	if !ok {
		return fmt.Errorf("no usage data")
	}
	_, err := fmt.Fprintf(w, "%s\n%s\n", d.Title, d.Tooltip)
	return err
}

// runsOut describes a projection for the summary table.
func runsOut(p models.Projection, ok bool, now time.Time) string {
	switch {
	case !ok:
		return "-"
	case p.CurrentPercent >= 100:
		return "now"
	case p.DepleteAt.IsZero():
		return "-"
	case p.WillDepleteBefore, p.ResetTime.IsZero():
		return humanize.RelTime(p.DepleteAt, now, "ago", "from now")
	default:
		return "after reset"
	}
}

// writeSummary prints quota limits, alerts and usage totals as a table.
// projections may be nil.
func writeSummary(w io.Writer, data *models.AllUsageData, projections map[string]models.Projection, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "LIMIT\tUSED\tRESETS\tSTATUS\tRUNS OUT")
	for _, l := range data.QuotaLimits {
		resets := "-"
		if reset, ok := l.ResetTime(); ok {
			resets = humanize.RelTime(reset, now, "ago", "from now")
		}
		status := strings.ToUpper(string(models.ClassifySeverity(l.Percentage)))
		if status == "" {
			status = "OK"
		}
		p, ok := projections[l.Type]
		fmt.Fprintf(tw, "%s\t%.1f%%\t%s\t%s\t%s\n", l.Type, l.Percentage, resets, status, runsOut(p, ok, now))
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "MODEL\tTOKENS\tREQUESTS\t\t")
	for _, item := range data.ModelUsage {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\t\n", item.Model, humanize.Comma(item.TokenCount), humanize.Comma(item.RequestCount))
	}

	if len(data.ToolUsage) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TOOL\tCALLS\t\t\t")
		for _, item := range data.ToolUsage {
			fmt.Fprintf(tw, "%s\t%s\t\t\t\n", item.ToolName, humanize.Comma(item.UsageCount))
		}
	}

	return tw.Flush()
}
