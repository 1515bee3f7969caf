// Command remote serves the remote content contract consumed by
// glitchreveal.HTTPRemote: GET /?code=<code>&ua=<ua> returns
// {"found": bool, "message": "..."}.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/Morditux/glitchreveal"
)

// messages maps personalization codes to messages, e.g.
//
//	A01: "Happy Valentine's, from the one who hid this tag."
type messages map[string]string

func loadMessages(path string) (messages, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := messages{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func newRouter(m messages, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		msg, ok := m[code]
		logger.Info("lookup", "code", code, "found", ok, "ua", r.URL.Query().Get("ua"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(glitchreveal.RemoteData{Found: ok, Message: msg})
	})
	return r
}

func main() {
	addr := flag.String("addr", ":8081", "listen address")
	file := flag.String("messages", "messages.yaml", "YAML file of code: message pairs")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	m, err := loadMessages(*file)
	if err != nil {
		log.Fatalf("failed to load messages: %v", err)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(m, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Info("remote content server starting", "addr", *addr, "codes", len(m))
	log.Fatal(srv.ListenAndServe())
}
