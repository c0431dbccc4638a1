package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/JoeWakeling/newswire/internal/auth"
	"github.com/JoeWakeling/newswire/internal/config"
	web "github.com/JoeWakeling/newswire/internal/server"
	"github.com/JoeWakeling/newswire/internal/store"
)

var (
	logger     *zap.Logger
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "newsagency",
	Short: "newsagency - a federated news agency server",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agency API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening story store: %w", err)
		}
		defer st.Close()

		sessions, err := auth.NewSessions(cfg.RedisAddr, st)
		if err != nil {
			return fmt.Errorf("connecting session store: %w", err)
		}
		defer sessions.Close()

		srv := web.NewServer(st, sessions, logger)

		// Setup Signal Handling (Ctrl+C)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.Start(cfg.ListenPort)
		}()

		select {
		case err := <-errChan:
			return err
		case <-sigChan:
			logger.Info("Shutting down...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(ctx)
		}
	},
}

var addUserCmd = &cobra.Command{
	Use:   "adduser [username] [display name]",
	Short: "Create an author account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("opening story store: %w", err)
		}
		defer st.Close()

		fmt.Print("Enter password: ")
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		if len(password) == 0 {
			return fmt.Errorf("password must not be empty")
		}

		hash, err := auth.HashPassword(string(password))
		if err != nil {
			return err
		}

		id, err := st.CreateUser(cmd.Context(), args[0], args[1], hash)
		if err != nil {
			return err
		}
		logger.Info("User created", zap.String("username", args[0]), zap.Int64("id", id))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register this agency with the directory service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cfg.Agency.Name == "" || cfg.Agency.URL == "" || cfg.Agency.Code == "" {
			return fmt.Errorf("config: agency name, url and code must all be set to register")
		}

		payload, err := json.Marshal(map[string]string{
			"agency_name": cfg.Agency.Name,
			"url":         cfg.Agency.URL,
			"agency_code": cfg.Agency.Code,
		})
		if err != nil {
			return err
		}

		endpoint := strings.TrimSuffix(cfg.DirectoryURL, "/") + "/api/directory/"
		httpClient := &http.Client{Timeout: 15 * time.Second}
		resp, err := httpClient.Post(endpoint, "application/json", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("unable to connect to directory service: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("registration failed (code %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		logger.Info("Agency registered with directory",
			zap.String("code", cfg.Agency.Code),
			zap.String("directory", cfg.DirectoryURL))
		return nil
	},
}

func main() {
	var err error
	logger, err = zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addUserCmd)
	rootCmd.AddCommand(registerCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
