package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gestao-municipal/gestao/internal/calendar"
)

type addResult struct {
	Base   string `json:"base"`
	Amount int    `json:"amount"`
	Unit   string `json:"unit"`
	Result string `json:"result"`
}

type daysResult struct {
	Today  string `json:"today"`
	Target string `json:"target"`
	Days   int    `json:"days"`
}

func newCalcCmd(opts *RootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Contract date arithmetic",
	}
	cmd.PersistentFlags().BoolVar(&strict, "strict", false, "fail on malformed dates instead of falling back")

	policy := func() calendar.Policy {
		if strict {
			return calendar.PolicyStrict
		}
		return calendar.PolicyLenient
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "add <date> <amount> <day|month|year>",
		Short:   "Add a duration to a DD/MM/YYYY date",
		Example: "gestaoctl calc add 31/01/2024 1 month",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}
			unit := calendar.Unit(strings.ToLower(args[2]))
			res := addResult{Base: args[0], Amount: amount, Unit: string(unit), Result: args[0]}

			base, err := calendar.Parse(args[0])
			if err != nil {
				if policy() == calendar.PolicyStrict {
					return err
				}
			} else {
				out, err := policy().AddDuration(base, amount, unit)
				if err != nil {
					return err
				}
				res.Result = out.String()
			}
			return render(cmd.OutOrStdout(), opts.Output, res, func(w io.Writer) {
				fmt.Fprintln(w, res.Result)
			})
		},
	})

	var today string
	daysCmd := &cobra.Command{
		Use:   "days-until <date>",
		Short: "Days from today to a date (negative when past)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clock, err := opts.clock(today)
			if err != nil {
				return err
			}
			res := daysResult{Today: clock.Today().String(), Target: args[0]}
			target, err := calendar.Parse(args[0])
			if err != nil {
				if policy() == calendar.PolicyStrict {
					return err
				}
			} else {
				days, err := policy().DaysUntil(clock, target)
				if err != nil {
					return err
				}
				res.Days = days
			}
			return render(cmd.OutOrStdout(), opts.Output, res, func(w io.Writer) {
				fmt.Fprintln(w, res.Days)
			})
		},
	}
	daysCmd.Flags().StringVar(&today, "today", "", "pin today (DD/MM/YYYY) instead of the system clock")
	cmd.AddCommand(daysCmd)

	return cmd
}
