package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/snapshot/internal/core/events/bus"
	"github.com/zeusync/snapshot/internal/core/models"
	"github.com/zeusync/snapshot/internal/core/observability/log"
	"github.com/zeusync/snapshot/internal/injector"
	"github.com/zeusync/snapshot/internal/transfer"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		file      string
		followers int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a world's snapshot over a websocket",
		Long: `Load a document (or build the demo world) and serve its snapshot to
clients of the fetch command until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := serveWorld(cmd, rootOpts, file, followers)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts.App, w)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "document to serve (default: the demo world)")
	cmd.Flags().IntVarP(&followers, "followers", "n", 3, "number of followers in the demo world")

	return cmd
}

func serveWorld(cmd *cobra.Command, rootOpts *RootOptions, file string, followers int) (*models.World, error) {
	if file == "" {
		return demoWorld(rootOpts, followers)
	}
	data, err := readInput(cmd, file)
	if err != nil {
		return nil, err
	}
	w := models.NewWorld()
	if _, err = rootOpts.App.Engine.Load(w, data); err != nil {
		return nil, err
	}
	return w, nil
}

// runServe serves w until ctx is done.
func runServe(ctx context.Context, app *injector.App, w *models.World) error {
	var mu sync.Mutex
	source := transfer.SourceFunc(func(context.Context) ([]byte, error) {
		mu.Lock()
		defer mu.Unlock()
		return app.Engine.Save(w)
	})

	served := 0
	sub, err := app.Bus.Subscribe(bus.EventSaved, func(bus.Event) error {
		served++
		return nil
	})
	if err != nil {
		return err
	}
	defer app.Bus.Unsubscribe(sub)

	server := injector.InitializeTransferServer(app.Config, source, app.Logger)
	app.Logger.Info("serving snapshot", log.Int("entities", w.Len()))
	err = server.Run(ctx)
	mu.Lock()
	app.Logger.Info("server stopped", log.Int("served", served))
	mu.Unlock()
	return err
}
