package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"askpepper/client"
	"askpepper/client/mic"

	"github.com/spf13/cobra"
)

func main() {
	var (
		apiURL       string
		outputDir    string
		seconds      int
		untilSilence bool
	)

	root := &cobra.Command{
		Use:           "client",
		Short:         "Ask the assistant a question out loud",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mic.Open(client.DefaultChannels, client.DefaultRate, client.DefaultChunk)
			if err != nil {
				return fmt.Errorf("open microphone: %w", err)
			}
			defer m.Close()

			s := &client.Session{
				API:          client.NewAPIClient(apiURL),
				Recorder:     client.NewRecorder(m),
				OutputDir:    outputDir,
				Duration:     time.Duration(seconds) * time.Second,
				UntilSilence: untilSilence,
				Progress: func(format string, args ...any) {
					fmt.Printf(format, args...)
				},
			}
			_, err = s.Run(cmd.Context())
			return err
		},
	}
	root.Flags().StringVar(&apiURL, "api-url", client.DefaultAPIURL, "assistant API base URL")
	root.Flags().StringVar(&outputDir, "output-dir", "./data", "where recordings are saved")
	root.Flags().IntVar(&seconds, "seconds", client.DefaultSeconds, "recording length")
	root.Flags().BoolVar(&untilSilence, "until-silence", false, "stop recording after a stretch of silence instead")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}
