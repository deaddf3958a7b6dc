package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Vasilis92/Spotify-Alarm/internal/auth"
	"github.com/Vasilis92/Spotify-Alarm/internal/config"
	"github.com/Vasilis92/Spotify-Alarm/internal/server"
	"github.com/Vasilis92/Spotify-Alarm/internal/spotify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	addr := cfg.Host + ":" + cfg.Port

	ctx := context.Background()
	provider := auth.NewProvider(cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI, cfg.TokenCachePath, nil)
	token, err := auth.Authorize(ctx, provider, cfg.RedirectURI,
		time.Duration(cfg.AuthWaitTimeoutSec)*time.Second, nil)
	if err != nil {
		log.Fatalf("spotify auth error: %v", err)
	}

	client := spotify.NewClient(provider.Client(ctx, token),
		time.Duration(cfg.SpotifyTimeoutMs)*time.Millisecond, nil)

	handler, shutdownHandler, err := server.New(cfg, client, server.Options{})
	if err != nil {
		log.Fatalf("server init error: %v", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-shutdownCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownHandler(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("spotify-alarmd listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
