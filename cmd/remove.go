package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove <song-id>",
	Short: "Remove a song from the catalog",
	Long: `Delete a song's catalog record and its media files. The record
is removed even if the media files cannot be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	application, err := buildApp(true)
	if err != nil {
		return err
	}
	defer func() {
		_ = application.Shutdown()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := application.Initialize(ctx); err != nil {
		return err
	}

	if err := application.Catalog().Remove(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("removed %s\n", args[0])
	return nil
}
