package main

import (
	"flag"
	"log"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/lkaiser/livecap/internal/config"
	"github.com/lkaiser/livecap/internal/daemon"
	"github.com/lkaiser/livecap/internal/db"
)

func main() {
	configPath := flag.String("config", "", "path to livecap.yaml")
	listen := flag.String("listen", "", "HTTP listen address (defaults to the server_addr host)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	addr := *listen
	if addr == "" {
		u, err := url.Parse(cfg.ServerAddr)
		if err != nil || u.Host == "" {
			log.Fatalf("cannot derive a listen address from server_addr %q", cfg.ServerAddr)
		}
		addr = u.Host
	}

	store, err := db.Open(db.DefaultDBPath(cfg.DataDir))
	if err != nil {
		log.Fatalf("open cache: %v", err)
	}
	defer store.Close()

	hub := daemon.NewHub()
	if err := hub.Listen(cfg.EventAddr); err != nil {
		log.Fatalf("event socket %s: %v", cfg.EventAddr, err)
	}
	defer hub.Close()
	go func() {
		if err := hub.Serve(); err != nil {
			log.Printf("event hub stopped: %v", err)
		}
	}()

	transcriber := &daemon.WhisperTranscriber{
		Command:      cfg.Whisper.Command,
		Model:        cfg.Whisper.Model,
		ChunkSeconds: cfg.Whisper.ChunkSeconds,
		WorkDir:      filepath.Join(cfg.DataDir, "chunks"),
	}
	summarizer := daemon.NewOpenAISummarizer(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	srv := daemon.NewServer(cfg.DataDir, store, hub, transcriber, summarizer)
	log.Printf("livecapd listening on %s, events on %s", addr, cfg.EventAddr)
	if err := http.ListenAndServe(addr, srv.Router()); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
