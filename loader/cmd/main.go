package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"askpepper/loader/internal"
	"askpepper/loader/service"
	"askpepper/model"
	"askpepper/types"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	loadEnvVariables()
	cfg := types.LoadConfig()

	root := &cobra.Command{
		Use:           "loader",
		Short:         "Prepare the document store used by the assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.DatasetPath, "dataset", cfg.DatasetPath, "JSON dataset file")
	root.PersistentFlags().IntVar(&cfg.MinDocLength, "min-length", cfg.MinDocLength, "drop documents shorter than this many characters")

	build := &cobra.Command{
		Use:   "build",
		Short: "Index the dataset, or load the existing snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), cfg)
		},
	}
	build.Flags().StringVar(&cfg.StorePath, "store", cfg.StorePath, "document store snapshot path")
	build.Flags().StringVar(&cfg.StoreBackend, "backend", cfg.StoreBackend, "store backend: memory or postgres")
	build.Flags().IntVar(&cfg.SplitLength, "split-length", cfg.SplitLength, "sentences per chunk")

	preprocess := &cobra.Command{
		Use:   "preprocess",
		Short: "Show how many dataset rows survive cleaning",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := internal.ReadDataset(cfg.DatasetPath)
			if err != nil {
				return err
			}
			cleaned := internal.Preprocess(records, cfg.MinDocLength)
			fmt.Printf("rows: %d, kept: %d, dropped: %d\n", len(records), len(cleaned), len(records)-len(cleaned))
			return nil
		},
	}

	root.AddCommand(build, preprocess)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func runBuild(ctx context.Context, cfg types.Config) error {
	st, closeStore, err := service.Build(ctx, cfg, model.NewEmbedder(cfg.Embedding))
	if err != nil {
		return err
	}
	defer closeStore()

	n, err := st.Count(ctx)
	if err != nil {
		return err
	}
	log.Printf("Document store ready with %d chunks\n", n)
	return nil
}

func loadEnvVariables() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, using process environment")
	}
}
