package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/forage/internal/adapters/sqlite"
	"github.com/bft-labs/forage/internal/cliconfig"
	"github.com/bft-labs/forage/pkg/log"
	"github.com/bft-labs/forage/pkg/viewmodel"
)

// screenKey is the view model store key shared by every command; one
// invocation is one screen.
const screenKey = "forageables"

// app carries what every subcommand needs once setup has run.
type app struct {
	cfg     cliconfig.Config
	cfgPath string

	logger log.Logger
	store  *sqlite.Store
	models *viewmodel.Store
	vm     *viewmodel.ForageableViewModel

	failedWrites atomic.Int32
}

func logErr(err error) log.Field { return log.Err(err) }

// setup layers configuration (file, then env, then flags), opens the
// database and builds the view model.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger = log.NewZerologAdapter(os.Stderr, a.cfg.LogLevel)
	a.logger.Debug("configuration",
		log.String("db", a.cfg.DBPath),
		log.Bool("watch_file", a.cfg.WatchFile),
		log.Duration("shutdown_timeout", a.cfg.ShutdownTimeout))

	store, err := sqlite.Open(a.cfg.DBPath,
		sqlite.WithLogger(a.logger),
		sqlite.WithFileWatch(a.cfg.WatchFile),
	)
	if err != nil {
		return err
	}
	a.store = store
	a.logger.Debug("database ready", log.String("path", store.Path()))

	factory := viewmodel.NewFactory(store,
		viewmodel.WithContext(context.WithoutCancel(cmd.Context())),
		viewmodel.WithLogger(a.logger),
		viewmodel.WithShutdownTimeout(a.cfg.ShutdownTimeout),
		viewmodel.WithMaxIOWorkers(a.cfg.MaxIOWorkers),
		viewmodel.WithLinger(a.cfg.Linger),
		viewmodel.WithFailureHandler(a.onWriteFailure),
	)
	a.models = viewmodel.NewStore()
	vm, err := viewmodel.Get[*viewmodel.ForageableViewModel](a.models, screenKey, factory)
	if err != nil {
		return err
	}
	a.vm = vm
	return nil
}

// onWriteFailure is the process-level sink for failed background writes.
func (a *app) onWriteFailure(task string, err error) {
	a.failedWrites.Add(1)
	a.logger.Error("background write failed", log.String("task", task), log.Err(err))
}

// teardown lets pending writes finish, clears the view models and closes
// the database.
func (a *app) teardown() error {
	var firstErr error
	if a.vm != nil {
		if err := a.vm.Flush(); err != nil {
			a.logger.Warn("pending writes did not finish", log.Err(err))
		}
	}
	if a.models != nil {
		if err := a.models.Clear(); err != nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}
	if n := a.failedWrites.Load(); n > 0 {
		return fmt.Errorf("%d background write(s) failed", n)
	}
	return nil
}
