package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JoeWakeling/newswire/internal/directory"
)

var (
	logger     *zap.Logger
	badgerPath string
	port       string
)

var rootCmd = &cobra.Command{
	Use:   "newsdir",
	Short: "newsdir - the news agency directory service",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := directory.OpenDB(badgerPath)
		if err != nil {
			return fmt.Errorf("opening registration database: %w", err)
		}
		defer db.Close()

		svc, err := directory.NewService(db, logger)
		if err != nil {
			return err
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			errChan <- svc.Start(port)
		}()

		select {
		case err := <-errChan:
			return err
		case <-sigChan:
			logger.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return svc.Stop(ctx)
		}
	},
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd.Flags().StringVar(&badgerPath, "badger", "./directory-data", "Path to BadgerDB data directory")
	rootCmd.Flags().StringVar(&port, "port", "8080", "Port to listen on")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
