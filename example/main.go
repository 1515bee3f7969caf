package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/Morditux/glitchreveal"
)

// termStage renders the experience as plain terminal output.
type termStage struct{}

func (s *termStage) Hide(p glitchreveal.Phase) {}

func (s *termStage) Show(p glitchreveal.Phase) {
	fmt.Printf("\n===== %s =====\n", p)
	switch p {
	case glitchreveal.PhaseLocked:
		fmt.Println("(press Enter to tap)")
	case glitchreveal.PhaseTapToStart:
		fmt.Println("[ TAP TO CONNECT ]  (press Enter)")
	}
}

func (s *termStage) SetTheme(t glitchreveal.Theme) {
	fmt.Printf("theme bg=%s text=%s accent=%s\n", t.Background, t.Text, t.Accent)
}

func (s *termStage) SetText(slot glitchreveal.Slot, text string) {
	if text == "" {
		return
	}
	fmt.Printf("[%s] %s\n", slot, text)
}

func (s *termStage) BeginLine(slot glitchreveal.Slot, style glitchreveal.LineStyle) {
	fmt.Print("\n> ")
}

func (s *termStage) AppendText(slot glitchreveal.Slot, text string) {
	fmt.Print(text)
}

func (s *termStage) Fade(slot glitchreveal.Slot, visible bool, d time.Duration) {}

func (s *termStage) SetEffect(e glitchreveal.Effect, on bool) {
	if e == glitchreveal.EffectStrobe {
		return
	}
	fmt.Printf("\n{%s %v}", e, on)
}

func (s *termStage) Spawn(e glitchreveal.Effect) {}

type bellAudio struct{}

func (bellAudio) Prime() error { return nil }

func (bellAudio) Play(c glitchreveal.Cue) error {
	fmt.Print("\a")
	return nil
}

func (bellAudio) PlayMusic() error         { return nil }
func (bellAudio) SetMusicVolume(v float64) {}

func main() {
	pageURL := flag.String("url", "https://example.invalid/", "page URL including query parameters (code, debug, reset)")
	flag.Parse()

	cfg, err := glitchreveal.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	visit, err := glitchreveal.ParseVisitURL(*pageURL, "glitchreveal-terminal/1.0")
	if err != nil {
		log.Fatalf("invalid url: %v", err)
	}

	level := slog.LevelInfo
	if visit.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := cfg.OpenStore()
	if err != nil {
		// The experience still runs, just without durable state.
		logger.Warn("session store unavailable", "error", err)
		store = nil
	}
	if store != nil {
		defer store.Close()
	}

	copyDict, err := cfg.LoadCopy()
	if err != nil {
		logger.Warn("copy file unreadable, using built-in copy", "error", err)
		copyDict = glitchreveal.DefaultCopy()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := glitchreveal.New(glitchreveal.Options{
		UnlockDate: cfg.UnlockDate,
		Session: glitchreveal.NewManager(glitchreveal.ManagerConfig{
			Store:  store,
			Key:    cfg.StorageKey,
			Logger: logger,
		}),
		Copy:      copyDict,
		Stage:     &termStage{},
		Audio:     bellAudio{},
		Remote:    cfg.Remote(logger),
		Notifier:  cfg.Notifier(logger),
		PingTopic: cfg.WebhookTopic,
		Typing:    cfg.Typing(),
		Logger:    logger,
	})

	// Every Enter press is both a tap and a start; the experience only
	// listens to the one that matches its phase.
	taps := make(chan struct{}, 1)
	start := make(chan struct{}, 1)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch exp.Phase() {
			case glitchreveal.PhaseLocked:
				taps <- struct{}{}
			case glitchreveal.PhaseTapToStart:
				select {
				case start <- struct{}{}:
				default:
				}
			}
		}
	}()

	if err := exp.Run(ctx, visit, glitchreveal.Input{Taps: taps, Start: start}); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
	fmt.Println()
}
