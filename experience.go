package glitchreveal

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultRemoteWait     = 4 * time.Second
	defaultHeartsInterval = 700 * time.Millisecond
	defaultPingTopic      = "valentine_tracker"

	musicTargetVolume = 0.8
	musicFadeStep     = 100 * time.Millisecond
	musicFadeDuration = 2 * time.Second
)

// Input carries the visitor's gestures into Run.
type Input struct {
	Taps  <-chan struct{} // taps on the locked surface
	Start <-chan struct{} // the tap-to-start button
}

// Options wires an Experience. Stage and Session are required.
type Options struct {
	UnlockDate time.Time
	Session    *Manager
	Copy       *Copy
	Stage      Stage
	Audio      Audio
	Remote     RemoteClient // nil disables remote content
	Notifier   Notifier     // used only when Remote is nil
	PingTopic  string
	Clock      Clock
	Typing     Typing
	Carousel   Carousel // Quotes and Credits default to the Copy entries
	Rand       *rand.Rand
	Logger     *slog.Logger

	// RemoteWait bounds how long the reveal waits for an in-flight fetch.
	RemoteWait     time.Duration
	HeartsInterval time.Duration
}

// Experience is the phase sequencer for one page load.
type Experience struct {
	session  *Manager
	gate     *Gate
	content  *ContentResolver
	stage    Stage
	audio    Audio
	remote   RemoteClient
	notifier Notifier
	clock    Clock
	sched    *scheduler
	carousel Carousel
	typing   Typing
	rng      *rand.Rand
	logger   *slog.Logger

	pingTopic      string
	remoteWait     time.Duration
	heartsInterval time.Duration

	phase atomic.Int32
	bg    sync.WaitGroup

	// fetch is the remote call of the current Run. Only the Run goroutine
	// touches it.
	fetch *pendingFetch
}

func New(opts Options) *Experience {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Session == nil {
		opts.Session = NewManager(ManagerConfig{Logger: opts.Logger})
	}
	if opts.Audio == nil {
		opts.Audio = silentAudio{}
	}
	if h, ok := opts.Remote.(*HTTPRemote); ok && h == nil {
		opts.Remote = nil
	}
	if opts.Typing == (Typing{}) {
		opts.Typing = defaultTyping
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.PingTopic == "" {
		opts.PingTopic = defaultPingTopic
	}
	if opts.RemoteWait <= 0 {
		opts.RemoteWait = defaultRemoteWait
	}
	if opts.HeartsInterval <= 0 {
		opts.HeartsInterval = defaultHeartsInterval
	}

	content := NewContentResolver(opts.Copy)
	if opts.Carousel.Quotes == nil {
		opts.Carousel.Quotes = content.Quotes()
	}
	if opts.Carousel.Credits == "" {
		opts.Carousel.Credits = content.Credits()
	}

	return &Experience{
		session:        opts.Session,
		gate:           NewGate(opts.UnlockDate, opts.Session, content),
		content:        content,
		stage:          opts.Stage,
		audio:          opts.Audio,
		remote:         opts.Remote,
		notifier:       opts.Notifier,
		clock:          opts.Clock,
		sched:          newScheduler(opts.Clock),
		carousel:       opts.Carousel,
		typing:         opts.Typing,
		rng:            opts.Rand,
		logger:         opts.Logger,
		pingTopic:      opts.PingTopic,
		remoteWait:     opts.RemoteWait,
		heartsInterval: opts.HeartsInterval,
	}
}

// Phase returns the phase currently shown. It is safe to call while Run is
// in progress.
func (e *Experience) Phase() Phase {
	return Phase(e.phase.Load())
}

// Run plays the experience for one visit. It only returns once ctx ends
// (the visitor leaves) and then returns ctx.Err(). Infrastructure failures
// never stop it.
func (e *Experience) Run(ctx context.Context, v Visit, in Input) error {
	defer e.bg.Wait()

	e.logger = e.logger.With("run", uuid.NewString())
	if v.Code != "" {
		e.logger = e.logger.With("code", v.Code)
	}

	rec := e.session.Load(ctx, v)
	now := e.clock.Now()
	e.stage.SetTheme(ThemeFor(ResolveTimeOfDay(now)))

	decision := e.gate.Evaluate(now, v.Debug)
	e.logger.Info("visit loaded",
		"decision", decision,
		"visits", rec.VisitCount,
		"unlocked", rec.HasUnlocked,
		"debug", v.Debug,
		"in_memory", e.session.InMemory())

	switch {
	case decision == Locked:
		return e.runLocked(ctx, in.Taps)
	case rec.HasUnlocked:
		return e.runReturning(ctx, v)
	}

	e.showPhase(PhaseTapToStart)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-in.Start:
	}

	// Still inside the start gesture.
	if err := e.audio.Prime(); err != nil {
		e.logger.Debug("audio prime blocked", "error", err)
	}

	if err := e.runGlitch(ctx, v); err != nil {
		return err
	}

	e.session.Update(ctx, func(r *Record) {
		r.HasUnlocked = true
	})
	if e.remote == nil {
		e.sendPing(ctx, v.Code)
	}

	// The budget counts from glitch entry, so a slow remote never delays
	// the reveal past the end of the script.
	now = e.clock.Now()
	msg := e.fetch.message(ctx, now, e.remoteWait)
	content := e.content.Resolve(ModeFirstRun, v.Code, now, msg)
	return e.runReveal(ctx, content, func() string { return content.MainBody })
}

func (e *Experience) runLocked(ctx context.Context, taps <-chan struct{}) error {
	e.showPhase(PhaseLocked)
	e.showTaunt(e.gate.Idle(e.clock.Now()))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-taps:
			if !ok {
				taps = nil
				continue
			}
			e.showTaunt(e.gate.OnLockedTap(ctx, e.clock.Now()))
		}
	}
}

func (e *Experience) showTaunt(prefix, body string) {
	e.stage.SetText(SlotLockedPrefix, prefix)
	e.stage.SetText(SlotLockedBody, body)
}

// runReturning skips straight to the reveal for a visitor who already
// finished the glitch sequence. Only the carousel greeting waits for the
// remote call.
func (e *Experience) runReturning(ctx context.Context, v Visit) error {
	now := e.clock.Now()
	e.fetch = startFetch(ctx, e.remote, v.Code, v.UserAgent, now)
	content := e.content.Resolve(ModeReturn, v.Code, now, "")

	return e.runReveal(ctx, content, func() string {
		if msg := e.fetch.message(ctx, e.clock.Now(), e.remoteWait); msg != "" {
			return msg
		}
		return content.MainBody
	})
}

// runGlitch plays the fixed script. The remote fetch starts here so it
// overlaps the animation; the caller collects it afterwards.
func (e *Experience) runGlitch(ctx context.Context, v Visit) error {
	e.showPhase(PhaseGlitch)
	e.stage.SetText(SlotGlitch, "")

	e.fetch = startFetch(ctx, e.remote, v.Code, v.UserAgent, e.clock.Now())

	runner := &scriptRunner{
		sched:  e.sched,
		stage:  e.stage,
		audio:  e.audio,
		lines:  e.content.Copy().Glitch,
		typing: e.typing,
		rng:    e.rng,
		logger: e.logger,
	}
	return runner.run(ctx, glitchScript)
}

// runReveal shows the reveal phase, then resolves the carousel greeting.
func (e *Experience) runReveal(ctx context.Context, content RevealContent, greeting func() string) error {
	e.showPhase(PhaseReveal)
	e.stage.SetText(SlotRevealFooter, content.Footer)

	e.stage.SetEffect(EffectBackgroundHearts, true)
	hearts := e.sched.every(e.heartsInterval, func() {
		e.stage.Spawn(EffectBackgroundHearts)
	})
	defer func() {
		hearts.stop()
		e.stage.SetEffect(EffectBackgroundHearts, false)
	}()

	fade := e.startMusic()
	defer fade.stop()

	return e.carousel.run(ctx, e.sched, e.stage, greeting())
}

// startMusic starts the song at zero volume and ramps it up.
func (e *Experience) startMusic() *repeater {
	e.audio.SetMusicVolume(0)
	if err := e.audio.PlayMusic(); err != nil {
		e.logger.Debug("music playback blocked", "error", err)
	}

	step := musicTargetVolume / float64(musicFadeDuration/musicFadeStep)
	vol := 0.0
	var fade *repeater
	fade = e.sched.every(musicFadeStep, func() {
		vol = min(vol+step, musicTargetVolume)
		e.audio.SetMusicVolume(vol)
		if vol >= musicTargetVolume {
			fade.stop()
		}
	})
	return fade
}

func (e *Experience) sendPing(ctx context.Context, code string) {
	if e.notifier == nil {
		return
	}
	ping := unlockPing(e.pingTopic, code)
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := e.notifier.Notify(ctx, ping); err != nil {
			e.logger.Warn("unlock ping failed", "error", err)
		}
	}()
}

// showPhase hides every other phase before showing p, so two phases are
// never visible together.
func (e *Experience) showPhase(p Phase) {
	for _, other := range phases {
		if other != p {
			e.stage.Hide(other)
		}
	}
	e.stage.Show(p)
	e.phase.Store(int32(p))
	e.logger.Debug("phase", "phase", p)
}

type silentAudio struct{}

func (silentAudio) Prime() error           { return nil }
func (silentAudio) Play(Cue) error         { return nil }
func (silentAudio) PlayMusic() error       { return nil }
func (silentAudio) SetMusicVolume(float64) {}
