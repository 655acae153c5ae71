package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/offtune/internal/domain"
)

var playVariant string

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <song-id>",
	Short: "Play a song from the catalog",
	Long: `Load a song into the player session and play it through the
default audio device. Blocks until the playlist runs out or interrupted.

Use --variant to play an isolated stem instead of the full mix.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playVariant, "variant", "v", "full", "Variant to play (full, vocals, instrumental)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	variant := domain.Variant(playVariant)
	if !variant.Valid() {
		return fmt.Errorf("unknown variant %q", playVariant)
	}

	application, err := buildApp(false)
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

	session := application.Session()
	if err := session.LoadAndPlay(args[0]); err != nil {
		return err
	}
	if variant != domain.VariantFull {
		if err := session.SwitchVariant(variant); err != nil {
			return err
		}
	}

	ended := make(chan struct{}, 1)
	sub := application.EventBus().Subscribe(domain.EventSessionEnded, func(event domain.Event) {
		select {
		case ended <- struct{}{}:
		default:
		}
	})
	defer application.EventBus().Unsubscribe(sub)

	progressSub := application.EventBus().Subscribe(domain.EventSessionProgress, func(event domain.Event) {
		if progress, ok := event.(domain.SessionProgressEvent); ok {
			fmt.Printf("\r%s / %s ", progress.Position.Round(time.Second), progress.Duration.Round(time.Second))
		}
	})
	defer application.EventBus().Unsubscribe(progressSub)

	select {
	case <-ctx.Done():
	case <-ended:
	}
	fmt.Println()
	return nil
}
