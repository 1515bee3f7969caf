package glitchreveal

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(clock *fakeClock, stage Stage, audio Audio) *scriptRunner {
	return &scriptRunner{
		sched:  newScheduler(clock),
		stage:  stage,
		audio:  audio,
		lines:  DefaultCopy().Glitch,
		typing: defaultTyping,
		rng:    rand.New(rand.NewPCG(1, 2)),
		logger: discardLogger(),
	}
}

func TestGlitchScript_Order(t *testing.T) {
	clock := newFakeClock(unlockDate)
	stage := &recordingStage{clock: clock}
	audio := &recordingAudio{}
	r := newTestRunner(clock, stage, audio)

	require.NoError(t, r.run(context.Background(), glitchScript))

	c := DefaultCopy().Glitch
	assert.Equal(t, append(append([]string{}, c.Lines...), c.Punchline), stage.typedLines())
	assert.Equal(t, []Cue{CueFirstImpact, CueLoopHit, CueMeltdown}, audio.cues)

	events := stage.snapshot()
	shakeOn := firstIndex(events, func(e event) bool { return e.Kind == "effect" && e.Effect == EffectShake && e.On })
	shakeOff := firstIndex(events, func(e event) bool { return e.Kind == "effect" && e.Effect == EffectShake && !e.On })
	punch := firstIndex(events, func(e event) bool { return e.Kind == "line" && e.Style == StyleHuman })
	require.NotEqual(t, -1, shakeOn)
	require.NotEqual(t, -1, shakeOff)
	assert.Less(t, shakeOn, shakeOff)
	assert.Less(t, shakeOff, punch, "chaos ends before the punchline")

	// The strobe flickered while on and finished off.
	var strobe []bool
	for _, e := range events {
		if e.Kind == "effect" && e.Effect == EffectStrobe {
			strobe = append(strobe, e.On)
		}
	}
	require.Greater(t, len(strobe), 3, "strobe should toggle repeatedly")
	assert.Contains(t, strobe[1:len(strobe)-1], false)
	assert.False(t, strobe[len(strobe)-1])
	assert.Equal(t, 0, r.sched.active(), "no repeating timer outlives the script")
}

func TestGlitchScript_Timing(t *testing.T) {
	clock := newFakeClock(unlockDate)
	stage := &recordingStage{clock: clock}
	r := newTestRunner(clock, stage, &recordingAudio{})

	require.NoError(t, r.run(context.Background(), glitchScript))

	total := clock.Now().Sub(unlockDate)
	assert.GreaterOrEqual(t, total, 10*time.Second)
	assert.LessOrEqual(t, total, 12500*time.Millisecond)

	// The first line starts only after the opening wait.
	events := stage.snapshot()
	first := events[firstIndex(events, func(e event) bool { return e.Kind == "line" })]
	assert.Equal(t, 600*time.Millisecond, first.At.Sub(unlockDate))

	// Each character waits between base and base+variance.
	var prev time.Time
	for _, e := range events {
		if e.Kind != "append" {
			continue
		}
		if !prev.IsZero() {
			gap := e.At.Sub(prev)
			assert.GreaterOrEqual(t, gap, defaultTyping.Base)
		}
		prev = e.At
	}
}

func TestGlitchScript_AudioBlocked(t *testing.T) {
	clock := newFakeClock(unlockDate)
	audio := &recordingAudio{fail: true}
	r := newTestRunner(clock, &recordingStage{}, audio)

	require.NoError(t, r.run(context.Background(), glitchScript), "blocked audio never stops the script")
	assert.Len(t, audio.cues, 3)
}

func TestGlitchScript_CancelReleasesEffects(t *testing.T) {
	clock := newFakeClock(unlockDate)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stage := &recordingStage{}
	stage.onEvent = func(e event) {
		if e.Kind == "effect" && e.Effect == EffectStrobe && e.On {
			cancel()
		}
	}
	r := newTestRunner(clock, stage, &recordingAudio{})

	err := r.run(ctx, glitchScript)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, r.sched.active())

	events := stage.snapshot()
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, "effect:effect:strobe:false", events[len(events)-2].String())
	assert.Equal(t, "effect:effect:shake:false", events[len(events)-1].String(), "shake is switched off when the visitor leaves mid-chaos")
}

func TestGlitchScript_ShakeReleasedOnce(t *testing.T) {
	clock := newFakeClock(unlockDate)
	stage := &recordingStage{clock: clock}
	r := newTestRunner(clock, stage, &recordingAudio{})

	require.NoError(t, r.run(context.Background(), glitchScript))

	var shake []bool
	for _, e := range stage.snapshot() {
		if e.Kind == "effect" && e.Effect == EffectShake {
			shake = append(shake, e.On)
		}
	}
	assert.Equal(t, []bool{true, false}, shake)
}

func TestTypewrite_NoVariance(t *testing.T) {
	clock := newFakeClock(unlockDate)
	stage := &recordingStage{}
	sched := newScheduler(clock)

	err := typewrite(context.Background(), sched, stage, SlotGlitch, "héllo", Typing{Base: 10 * time.Millisecond}, nil)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, clock.Now().Sub(unlockDate), "one delay per rune, not per byte")
}
