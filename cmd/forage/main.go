package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bft-labs/forage/internal/cliconfig"
)

const longHelp = `
Keep track of where the good stuff grows.

forage stores foraging spots (name, address, whether they are in season, and
notes) in a local SQLite database. List and show can follow the database live
with --follow, including changes made by other forage processes.

Configuration is read from $HOME/.forage/config.toml, then FORAGE_* environment
variables, then flags.
`

var exampleUsage = strings.TrimSpace(`
  forage add --name "Chanterelle" --address "North ridge trail" --in-season
  forage list --follow
  forage update 3 --name "Black morel" --address "Burn scar" --notes "April"
  forage delete 3
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "forage",
		Short:             "Track forageable plants and where to find them",
		Long:              strings.TrimSpace(longHelp),
		Example:           exampleUsage,
		Version:           fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.forage/config.toml)")
	flags.StringVar(&a.cfg.DBPath, "db", a.cfg.DBPath, "path to the SQLite database")
	flags.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level (debug, info, warn, error)")
	flags.BoolVar(&a.cfg.WatchFile, "watch-file", a.cfg.WatchFile, "follow writes made by other processes")
	flags.DurationVar(&a.cfg.ShutdownTimeout, "shutdown-timeout", a.cfg.ShutdownTimeout, "how long to wait for pending writes on exit")
	flags.DurationVar(&a.cfg.Linger, "linger", a.cfg.Linger, "how long live queries outlive their last observer")
	flags.IntVar(&a.cfg.MaxIOWorkers, "max-io-workers", a.cfg.MaxIOWorkers, "maximum concurrent background writes")
	if err := flags.MarkHidden("max-io-workers"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	root.AddCommand(
		newListCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
	)
	return root
}

// run executes one invocation: the command itself, then teardown, which
// waits for pending writes and closes the database. Cancelling ctx stops
// --follow loops; writes already submitted are not cancelled by it.
func run(ctx context.Context, a *app, args []string, out io.Writer) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	if out != nil {
		root.SetOut(out)
	}

	err := root.ExecuteContext(ctx)
	if tdErr := a.teardown(); err == nil {
		err = tdErr
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cliconfig.DefaultConfig()}
	if err := run(ctx, a, os.Args[1:], nil); err != nil {
		if a.logger != nil {
			a.logger.Error("forage", logErr(err))
		} else {
			fmt.Fprintln(os.Stderr, "forage:", err)
		}
		stop()
		os.Exit(1)
	}
}

// defaultWait bounds how long one-shot commands wait for the first emission.
const defaultWait = 2 * time.Second
