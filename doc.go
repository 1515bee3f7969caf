/*
Package glitchreveal drives a time-gated, single-page reveal experience: a
visitor opens a link, is held at a locked screen until a target date, then is
carried through a scripted glitch sequence into a personalized message and a
looping quote carousel.

The package owns the control flow and state. Rendering, audio assets and tap
detection belong to the host, which plugs in through the Stage and Audio
interfaces.

Key Features:

  - Date gate with a debug override and an escalating locked-screen taunt.
  - Persistent session record (unlock flag, visit and tap counters, last
    personalization code) with pluggable storage: in-memory, SQLite
    (CGO-free), PostgreSQL and Memcached.
  - Fail-soft infrastructure: storage, remote content, notification and
    audio failures are logged and never interrupt the experience.
  - A fixed glitch script interpreted by a cooperative runner; every timer,
    including repeating effects, is owned by one scheduler and released when
    its phase ends.
  - Optional remote content fetched in the background while the animation
    plays, merged with local copy at the reveal.

Usage:

	cfg, err := glitchreveal.LoadConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	store, err := cfg.OpenStore()
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	visit := glitchreveal.ParseVisit(r.URL.Query(), r.UserAgent())
	exp := glitchreveal.New(glitchreveal.Options{
		UnlockDate: cfg.UnlockDate,
		Session:    glitchreveal.NewManager(glitchreveal.ManagerConfig{Store: store, Key: cfg.StorageKey}),
		Stage:      myStage,
		Audio:      myAudio,
		Remote:     cfg.Remote(logger),
		Notifier:   cfg.Notifier(logger),
	})
	_ = exp.Run(ctx, visit, glitchreveal.Input{Taps: taps, Start: start})

Phases:

Locked, TapToStart, Glitch and Reveal are mutually exclusive. A visitor who
has already finished the glitch sequence goes straight to Reveal with the
return copy.

Thread Safety:

An Experience and its Manager are driven by the goroutine that calls Run.
Store implementations are safe for concurrent use.
*/
package glitchreveal
