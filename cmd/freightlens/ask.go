package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"freightlens/internal/pipeline"
	"freightlens/internal/translator"
)

func newAskCmd(configPath *string) *cobra.Command {
	var (
		dateFrom string
		dateTo   string
		clients  []string
		ports    []string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question and exit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := buildApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(ctx, a.cfg.Limits.RequestTimeout)
			defer cancel()

			resp, err := a.pipe.Run(ctx, pipeline.Request{
				Question: strings.Join(args, " "),
				Overrides: &translator.Overrides{
					DateFrom: dateFrom,
					DateTo:   dateTo,
					Clients:  clients,
					Ports:    ports,
				},
			})
			if err != nil {
				return err
			}

			printResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFrom, "from", "", "period start (YYYY-MM-DD), overrides the question")
	cmd.Flags().StringVar(&dateTo, "to", "", "period end (YYYY-MM-DD), overrides the question")
	cmd.Flags().StringSliceVar(&clients, "client", nil, "restrict to a client")
	cmd.Flags().StringSliceVar(&ports, "port", nil, "restrict to a port (load and discharge)")
	return cmd
}

// printResponse renders an answer for the terminal.
func printResponse(w io.Writer, resp *pipeline.Response) {
	if resp.Clarification != "" {
		fmt.Fprintln(w, resp.Clarification)
		return
	}

	fmt.Fprintln(w, resp.Narrative)
	fmt.Fprintln(w)

	for i, row := range resp.Rows {
		if i == 10 {
			fmt.Fprintf(w, "  ... and %d more groups\n", len(resp.Rows)-10)
			break
		}
		fmt.Fprintf(w, "  %-32s %8d bookings %10.1f TEU %8d units\n",
			row.Key, row.Bookings, row.TEU, row.Units)
	}

	if len(resp.AppliedFilters) > 0 {
		fmt.Fprintf(w, "\nfilters: %s\n", strings.Join(resp.AppliedFilters, "; "))
	}
	if resp.PeriodFrom != "" || resp.PeriodTo != "" {
		fmt.Fprintf(w, "period:  %s .. %s\n", resp.PeriodFrom, resp.PeriodTo)
	}
	fmt.Fprintf(w, "based on %d bookings", resp.AnalyzedBookings)
	if resp.Truncated {
		fmt.Fprint(w, " (row cap reached, figures are a lower bound)")
	}
	fmt.Fprintln(w)

	if resp.Verdict != nil {
		if resp.Verdict.Valid {
			fmt.Fprintf(w, "verified (confidence %.2f)\n", resp.Verdict.Confidence)
		} else {
			fmt.Fprintln(w, "WARNING: the answer failed fact validation:")
			for _, e := range resp.Verdict.Errors {
				fmt.Fprintf(w, "  - %s\n", e)
			}
		}
		for _, warn := range resp.Verdict.Warnings {
			fmt.Fprintf(w, "  note: %s\n", warn)
		}
	}
}
