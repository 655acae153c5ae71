package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the songs in the catalog",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
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

	songs := application.Catalog().Songs()
	if len(songs) == 0 {
		fmt.Println("catalog is empty")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tARTIST\tDURATION\tSTEMS\tFAV")
	for _, song := range songs {
		stems := ""
		if song.HasStems() {
			stems = "yes"
		}
		fav := ""
		if song.Favorite {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			song.ID, song.Title, song.Artist, song.Duration.Round(time.Second), stems, fav)
	}
	return w.Flush()
}
