package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aelexs/timesync/internal/calendar"
	"github.com/aelexs/timesync/internal/domain"
	"github.com/aelexs/timesync/internal/timesync/port"
	"github.com/aelexs/timesync/pkg/protocol"
)

type nowOutput struct {
	Snapshot      protocol.SnapshotInfo `json:"snapshot"`
	Formatted     string                `json:"formatted"`
	Authenticated bool                  `json:"authenticated"`
}

func nowCmd(configFile *string) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:   "now",
		Short: "Print the current user date and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, *configFile, func(c *components) error {
				snap := c.svc.Snapshot()
				return printJSON(cmd.OutOrStdout(), nowOutput{
					Snapshot:      port.RenderSnapshot(snap),
					Formatted:     c.svc.FormatUserDate(snap.UserDateTime, calendar.ParseStyle(style)),
					Authenticated: c.svc.Status().Authenticated,
				})
			})
		},
	}
	cmd.Flags().StringVar(&style, "style", "full", "Date style: short, medium, long or full")
	return cmd
}

type rangeOutput struct {
	Filter    string   `json:"filter"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Days      int      `json:"days"`
	WeekDays  []string `json:"week_days,omitempty"`
}

func rangeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:       "range <day|week|month|year>",
		Short:     "Print the calendar window around the user date",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"day", "week", "month", "year"},
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := domain.ParseDateFilter(args[0])
			if !ok {
				return fmt.Errorf("%w: filter %q", domain.ErrInvalidInput, args[0])
			}
			return withService(cmd, *configFile, func(c *components) error {
				rng := c.svc.DateRange(filter)
				out := rangeOutput{
					Filter:    string(filter),
					StartDate: domain.FormatDate(rng.Start),
					EndDate:   domain.FormatDate(rng.End),
					Days:      rng.Days(),
				}
				if filter == domain.FilterWeek {
					out.WeekDays = c.svc.WeekDays()
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

func mockCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Pin or release the authority's simulated date",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <iso-datetime>",
		Short: "Pin the authority to a simulated instant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMock(cmd, *configFile, args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Return the authority to real time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMock(cmd, *configFile, "")
		},
	})
	return cmd
}

func runMock(cmd *cobra.Command, configFile, iso string) error {
	return withService(cmd, configFile, func(c *components) error {
		snap, err := c.svc.SetMockDateTime(cmd.Context(), iso)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), port.RenderSnapshot(snap))
	})
}

func driftCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "drift",
		Short: "Measure the device clock against NTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, *configFile, func(c *components) error {
				report, err := c.svc.ClockDrift(cmd.Context())
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), port.RenderDrift(report)); err != nil {
					return err
				}
				if !report.Healthy {
					return fmt.Errorf("clock offset %s exceeds %s", report.Offset, report.Threshold)
				}
				return nil
			})
		},
	}
}
