// Package cli implements the gestaoctl operator commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gestao-municipal/gestao/internal/calendar"
)

// RootOptions holds global CLI flags.
type RootOptions struct {
	RedisAddr string
	Timezone  string
	Output    string

	// Queue overrides the Redis-backed queue, used by tests.
	Queue Queue
}

func (o *RootOptions) queue() (Queue, func()) {
	if o.Queue != nil {
		return o.Queue, func() {}
	}
	c := NewJobsCLI(o.RedisAddr)
	return c, func() { _ = c.Close() }
}

func (o *RootOptions) clock(today string) (calendar.Clock, error) {
	if today != "" {
		d, err := calendar.Parse(today)
		if err != nil {
			return nil, err
		}
		return calendar.FixedClock(d), nil
	}
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", o.Timezone, err)
	}
	return calendar.SystemClock{Location: loc}, nil
}

// NewRootCommand builds the gestaoctl command tree.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}
	cmd := &cobra.Command{
		Use:           "gestaoctl",
		Short:         "Operator tooling for the contract management service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Output {
			case "text", "json":
				return nil
			default:
				return fmt.Errorf("output must be text or json, got %q", opts.Output)
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.RedisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "Redis address of the job queue")
	pf.StringVar(&opts.Timezone, "timezone", envOr("TIMEZONE", "America/Sao_Paulo"), "timezone used for today")
	pf.StringVarP(&opts.Output, "output", "o", "text", "output format (text, json)")

	cmd.AddCommand(newJobsCmd(opts), newCalcCmd(opts))
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
