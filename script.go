package glitchreveal

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Action is the kind of a script step.
type Action int

const (
	ActionWait Action = iota
	ActionTypeLine
	ActionCue
	ActionEffect
)

// punchline refers to GlitchCopy.Punchline instead of an entry of Lines.
const punchline = -1

// Step is one instruction of the glitch script.
type Step struct {
	Action Action
	Wait   time.Duration
	Line   int
	Style  LineStyle
	Cue    Cue
	Effect Effect
	On     bool
}

func wait(d time.Duration) Step           { return Step{Action: ActionWait, Wait: d} }
func typeLine(i int, s LineStyle) Step    { return Step{Action: ActionTypeLine, Line: i, Style: s} }
func playCue(c Cue) Step                  { return Step{Action: ActionCue, Cue: c} }
func toggleEffect(e Effect, on bool) Step { return Step{Action: ActionEffect, Effect: e, On: on} }

// glitchScript runs for roughly eleven seconds with the default copy and typing speed.
var glitchScript = []Step{
	wait(600 * time.Millisecond),
	typeLine(0, StyleSystem),
	playCue(CueFirstImpact),
	wait(700 * time.Millisecond),
	typeLine(1, StyleError),
	typeLine(2, StyleSystem),
	toggleEffect(EffectShake, true),
	toggleEffect(EffectStrobe, true),
	playCue(CueLoopHit),
	typeLine(3, StyleError),
	wait(1500 * time.Millisecond),
	playCue(CueMeltdown),
	toggleEffect(EffectStrobe, false),
	toggleEffect(EffectShake, false),
	wait(800 * time.Millisecond),
	typeLine(punchline, StyleHuman),
	wait(1200 * time.Millisecond),
}

// Typing controls the per-character delay of typed lines: Base plus a
// uniform jitter in [0, Variance).
type Typing struct {
	Base      time.Duration
	Variance  time.Duration
	LinePause time.Duration
}

var defaultTyping = Typing{
	Base:      50 * time.Millisecond,
	Variance:  20 * time.Millisecond,
	LinePause: 150 * time.Millisecond,
}

const strobeInterval = 90 * time.Millisecond

// scriptRunner interprets a script against the stage and audio.
type scriptRunner struct {
	sched  *scheduler
	stage  Stage
	audio  Audio
	lines  GlitchCopy
	typing Typing
	rng    *rand.Rand
	logger *slog.Logger

	strobe   *repeater
	strobeOn bool
	shaking  bool
}

// run executes steps strictly in order. Strobe and shake are always
// released on return, including on cancellation.
func (r *scriptRunner) run(ctx context.Context, steps []Step) error {
	defer r.release()

	for _, st := range steps {
		var err error
		switch st.Action {
		case ActionWait:
			err = r.sched.sleep(ctx, st.Wait)
		case ActionTypeLine:
			err = r.typeLine(ctx, st.Line, st.Style)
		case ActionCue:
			if perr := r.audio.Play(st.Cue); perr != nil {
				r.logger.Debug("audio cue blocked", "cue", st.Cue, "error", perr)
			}
		case ActionEffect:
			r.toggle(st.Effect, st.On)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *scriptRunner) lineText(i int) string {
	if i == punchline {
		return r.lines.Punchline
	}
	if i < 0 || i >= len(r.lines.Lines) {
		return ""
	}
	return r.lines.Lines[i]
}

func (r *scriptRunner) typeLine(ctx context.Context, i int, style LineStyle) error {
	text := r.lineText(i)
	if text == "" {
		return nil
	}
	r.stage.BeginLine(SlotGlitch, style)
	if err := typewrite(ctx, r.sched, r.stage, SlotGlitch, text, r.typing, r.rng); err != nil {
		return err
	}
	return r.sched.sleep(ctx, r.typing.LinePause)
}

// typewrite appends text to slot one rune at a time.
func typewrite(ctx context.Context, sched *scheduler, stage Stage, slot Slot, text string, t Typing, rng *rand.Rand) error {
	for _, c := range text {
		stage.AppendText(slot, string(c))
		delay := t.Base
		if t.Variance > 0 {
			delay += time.Duration(rng.Float64() * float64(t.Variance))
		}
		if err := sched.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (r *scriptRunner) toggle(e Effect, on bool) {
	switch {
	case e == EffectStrobe && on:
		r.startStrobe()
	case e == EffectStrobe:
		r.stopStrobe()
	default:
		if e == EffectShake {
			r.shaking = on
		}
		r.stage.SetEffect(e, on)
	}
}

func (r *scriptRunner) release() {
	r.stopStrobe()
	if r.shaking {
		r.shaking = false
		r.stage.SetEffect(EffectShake, false)
	}
}

func (r *scriptRunner) startStrobe() {
	if r.strobe != nil {
		return
	}
	r.strobeOn = true
	r.stage.SetEffect(EffectStrobe, true)
	r.strobe = r.sched.every(strobeInterval, func() {
		r.strobeOn = !r.strobeOn
		r.stage.SetEffect(EffectStrobe, r.strobeOn)
	})
}

func (r *scriptRunner) stopStrobe() {
	if r.strobe == nil {
		return
	}
	r.strobe.stop()
	r.strobe = nil
	r.strobeOn = false
	r.stage.SetEffect(EffectStrobe, false)
}
