package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/offtune/internal/domain"
)

// stemsCmd represents the stems command group
var stemsCmd = &cobra.Command{
	Use:   "stems",
	Short: "Split a song into vocal and instrumental stems",
}

// stemsExtractCmd starts a separation job and waits for it to finish
var stemsExtractCmd = &cobra.Command{
	Use:   "extract <song-id>",
	Short: "Upload a song for stem separation and wait until it is ready",
	Args:  cobra.ExactArgs(1),
	RunE:  runStemsExtract,
}

// stemsSaveCmd downloads the finished stems
var stemsSaveCmd = &cobra.Command{
	Use:   "save <song-id>",
	Short: "Download the separated stems and attach them to the song",
	Args:  cobra.ExactArgs(1),
	RunE:  runStemsSave,
}

func init() {
	rootCmd.AddCommand(stemsCmd)
	stemsCmd.AddCommand(stemsExtractCmd)
	stemsCmd.AddCommand(stemsSaveCmd)
}

func runStemsExtract(cmd *cobra.Command, args []string) error {
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

	sub := application.EventBus().Subscribe(domain.EventStemPhaseChanged, func(event domain.Event) {
		if change, ok := event.(domain.StemPhaseChangedEvent); ok {
			fmt.Printf("\r%-18s %3.0f%%", change.Phase, change.Percent)
		}
	})
	defer application.EventBus().Unsubscribe(sub)

	if err := application.Stems().StartExtraction(ctx, args[0]); err != nil {
		fmt.Println()
		return err
	}
	fmt.Println("\nstems ready, run `offtune stems save` to download them")
	return nil
}

func runStemsSave(cmd *cobra.Command, args []string) error {
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

	if err := application.Stems().SaveStems(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("stems downloaded and attached")
	return nil
}
