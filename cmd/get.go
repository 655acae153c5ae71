package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/offtune/internal/domain"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <url>",
	Short: "Download a song from a source URL",
	Long: `Convert a remote source URL through the backend and store the
result as a new song in the local catalog. Progress is printed while the
conversion runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	application, err := buildApp(true)
	if err != nil {
		return err
	}
	defer func() {
		_ = application.Shutdown()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := application.Initialize(ctx); err != nil {
		return err
	}

	sub := application.EventBus().Subscribe(domain.EventAcquisitionProgress, func(event domain.Event) {
		if progress, ok := event.(domain.AcquisitionProgressEvent); ok {
			fmt.Printf("\r%-20s %3.0f%%", progress.Stage, progress.Progress*100)
		}
	})
	defer application.EventBus().Unsubscribe(sub)

	song, err := application.Acquire().Acquire(ctx, args[0])
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Printf("added %q (%s) id=%s\n", song.Title, song.Artist, song.ID)
	return nil
}
