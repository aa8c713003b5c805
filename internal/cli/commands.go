package cli

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"foundry/internal/domain"
	"foundry/internal/summary"
)

var (
	success = color.New(color.FgGreen).SprintFunc()
	warn    = color.New(color.FgYellow).SprintFunc()
	muted   = color.New(color.FgHiBlack).SprintFunc()
	bold    = color.New(color.Bold).SprintFunc()
)

func loginCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in against a development service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := e.app.Login(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Printf("%s signed in as %s\n", success("✓"), user.Email)
			return nil
		},
	}
}

func logoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget cached data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Printf("%s signed out\n", success("✓"))
			return nil
		},
	}
}

func whoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.app.Session.Authenticated(cmd.Context()) {
				fmt.Println(warn("not signed in"))
				return nil
			}
			user, err := e.app.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s (id %d)\n", bold(user.Email), user.ID)
			return nil
		},
	}
}

func protocolsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "protocols [date]",
		Short: "List the protocols of a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := today()
			if len(args) == 1 {
				date = args[0]
			}
			protocols, err := e.app.Protocols(cmd.Context(), date)
			if err != nil {
				return err
			}
			p := summary.DailyProgress(protocols)
			fmt.Printf("%s  %d/%d done (%.0f%%)\n", bold(date), p.Completed, p.Total, p.Percent)
			for _, pr := range protocols {
				box := "[ ]"
				if pr.Completed {
					box = success("[x]")
				}
				fmt.Printf("  %s %-5s %s %s\n", box, pr.Time, pr.Title, muted("#"+strconv.FormatInt(pr.ID, 10)))
			}
			return nil
		},
	}
}

func toggleCmd(e *env) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completion of a protocol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid protocol id %q", args[0])
			}
			if date == "" {
				date = today()
			}
			protocols, err := e.app.Protocols(cmd.Context(), date)
			if err != nil {
				return err
			}
			for _, p := range protocols {
				if p.ID != id {
					continue
				}
				updated, err := e.app.ToggleProtocol(cmd.Context(), p)
				if err != nil {
					return err
				}
				state := "open"
				if updated.Completed {
					state = "done"
				}
				fmt.Printf("%s %s is %s\n", success("✓"), updated.Title, state)
				return nil
			}
			return fmt.Errorf("protocol %d not found on %s", id, date)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day the protocol belongs to (default today)")
	return cmd
}

func bookingsCmd(e *env) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "bookings",
		Short: "List bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			bookings, err := e.app.Bookings(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range summary.FilterBookings(bookings, domain.BookingType(kind)) {
				status := string(b.Status)
				switch b.Status {
				case domain.BookingConfirmed:
					status = success(status)
				case domain.BookingPending:
					status = warn(status)
				default:
					status = muted(status)
				}
				fmt.Printf("  %s %s  %-10s %s [%s]\n", b.Date, b.Time, b.Type, b.Title, status)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "only show bookings of this type")
	return cmd
}

func metricsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the latest reading of every health metric",
		RunE: func(cmd *cobra.Command, args []string) error {
			metrics, err := e.app.RecentMetrics(cmd.Context())
			if err != nil {
				return err
			}
			latest := summary.LatestMetrics(metrics)
			if len(latest) == 0 {
				fmt.Println(muted("no readings yet"))
				return nil
			}
			for _, t := range summary.MetricTypes(latest) {
				m := latest[t]
				fmt.Printf("  %-9s %8.1f  %s\n", t, m.Value, muted(m.Date))
			}
			return nil
		},
	}
}

func achievementsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Show achievement progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := e.app.AchievementBoard(cmd.Context())
			if err != nil && len(board.Views) == 0 {
				return err
			}
			fmt.Printf("%s unlocked of %d\n", bold(strconv.Itoa(board.Unlocked)), board.Total)
			for _, v := range board.Views {
				mark := muted("·")
				if v.IsUnlocked {
					mark = success("★")
				}
				fmt.Printf("  %s %-16s %3.0f%%  %s\n", mark, v.Title, v.ProgressPercent, muted(v.Description))
			}
			return err
		},
	}
}

func checkCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ask the service to evaluate achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := e.app.CheckAchievements(cmd.Context())
			if err != nil {
				return err
			}
			if resp.TotalNew == 0 {
				fmt.Println(muted("nothing new"))
				return nil
			}
			for _, a := range resp.NewAchievements {
				fmt.Printf("%s unlocked %s\n", success("★"), bold(a.AchievementKey))
			}
			return nil
		},
	}
}
