package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"licznik/internal/analysis"
	"licznik/internal/archive"
	"licznik/internal/config"
	"licznik/internal/httpserver"
	"licznik/internal/ui"
)

// RunServe is the entry point for `licznik serve`: it loads configuration,
// opens the upload archive and runs the HTTP server until interrupted.
func RunServe() {
	cfg, err := config.Load()
	if err != nil {
		ui.ShowError("Nie można wczytać konfiguracji", err)
		os.Exit(1)
	}

	if len(cfg.HTTPTokens) == 0 {
		token, err := generateToken()
		if err != nil {
			ui.ShowError("Nie można wygenerować tokenu", err)
			os.Exit(1)
		}
		cfg.HTTPTokens = []string{token}
		if saveErr := config.Save(cfg); saveErr != nil {
			ui.ShowWarning("Nie zapisano wygenerowanego tokenu: %v", saveErr)
		}
		fmt.Printf("Wygenerowany token: %s\n", token)
		fmt.Printf("(zapisany w %s)\n", config.ConfigPath)
	}

	arch, err := archive.NewStore(cfg.ArchivePath)
	if err != nil {
		ui.ShowError("Nie można otworzyć archiwum", err)
		os.Exit(1)
	}
	defer arch.Close()

	sessions := analysis.NewStore(cfg.SessionTTL())
	defer sessions.Close()

	srv := httpserver.NewServer(httpserver.Options{
		Tokens:         cfg.HTTPTokens,
		Version:        Version,
		Sessions:       sessions,
		Archive:        arch,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.HTTPBind)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			ui.ShowError("Serwer HTTP", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		fmt.Println("\nZamykanie serwera...")
		shutCtx, c := context.WithTimeout(context.Background(), 5*time.Second)
		defer c()
		if err := srv.Shutdown(shutCtx); err != nil {
			ui.ShowWarning("Wymuszone zamknięcie: %v", err)
		}
	}
}

// generateToken returns a random 32-char hex token.
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
