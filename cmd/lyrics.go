package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	lyricsSource int
	lyricsAttach string
)

// lyricsCmd represents the lyrics command
var lyricsCmd = &cobra.Command{
	Use:   "lyrics <song name>",
	Short: "Fetch lyrics for a song",
	Long: `Scrape lyrics for a song name through the backend. Use --source
to cycle through alternate lyric sources when the first result is wrong,
and --attach to store the result on a catalog song.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLyrics,
}

func init() {
	rootCmd.AddCommand(lyricsCmd)

	lyricsCmd.Flags().IntVarP(&lyricsSource, "source", "s", 0, "Lyric source index")
	lyricsCmd.Flags().StringVar(&lyricsAttach, "attach", "", "Song id to attach the lyrics to")
}

func runLyrics(cmd *cobra.Command, args []string) error {
	application, err := buildApp(true)
	if err != nil {
		return err
	}
	defer func() {
		_ = application.Shutdown()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := application.Initialize(ctx); err != nil {
		return err
	}

	songName := strings.Join(args, " ")
	lines, err := application.Lyrics().Search(ctx, songName, lyricsSource)
	if err != nil {
		return err
	}

	for _, line := range lines {
		fmt.Println(line)
	}

	if lyricsAttach != "" {
		if err := application.Lyrics().Attach(ctx, lyricsAttach, lines); err != nil {
			return err
		}
		fmt.Printf("\nattached to %s\n", lyricsAttach)
	}
	return nil
}
