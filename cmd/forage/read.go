package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/forage/internal/domain"
	"github.com/bft-labs/forage/pkg/live"
)

func newListCmd(a *app) *cobra.Command {
	var follow, asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all forageables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := printer{out: cmd.OutOrStdout(), json: asJSON}
			return watch(cmd.Context(), a.vm.Forageables(), follow, defaultWait, p.list)
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing the list whenever it changes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var follow, asJSON bool
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one forageable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := printer{out: cmd.OutOrStdout(), json: asJSON}
			err = watch(cmd.Context(), a.vm.Forageable(id), follow, wait, p.one)
			if errors.Is(err, errNoEmission) {
				return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing the record whenever it changes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().DurationVar(&wait, "wait", defaultWait, "how long to wait for the record to appear")
	return cmd
}

var errNoEmission = errors.New("no value received")

// watch prints the first value of d, and every later one when follow is set.
// Without follow it gives up after wait.
func watch[T any](ctx context.Context, d *live.Data[T], follow bool, wait time.Duration, print func(T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ch := d.Subscribe(ctx)

	var timeout <-chan time.Time
	if !follow {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return nil
			}
			if err := print(v); err != nil {
				return err
			}
			if !follow {
				return nil
			}
		case <-timeout:
			return errNoEmission
		case <-ctx.Done():
			return nil
		}
	}
}

// lookup returns the current value of a record through its live view.
func lookup(ctx context.Context, a *app, id int64, wait time.Duration) (domain.Forageable, error) {
	var found domain.Forageable
	err := watch(ctx, a.vm.Forageable(id), false, wait, func(f domain.Forageable) error {
		found = f
		return nil
	})
	if errors.Is(err, errNoEmission) {
		return domain.Forageable{}, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	return found, err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
