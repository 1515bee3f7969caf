package glitchreveal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarousel_Wraparound(t *testing.T) {
	clock := newFakeClock(unlockDate)
	stage := &recordingStage{clock: clock}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []int
	c := Carousel{
		Quotes:  []string{"one", "two", "three"},
		Credits: "credits",
		OnQuote: func(i int) {
			seen = append(seen, i)
			if len(seen) == 4 {
				cancel()
			}
		},
	}

	err := c.run(ctx, newScheduler(clock), stage, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0, 1, 2, 0}, seen)
	assert.Equal(t, []string{"hello", "credits", "one", "two", "three", "one"}, stage.texts(SlotCarousel))

	// greeting and credits: 1s + 5s + 2s each, then 1s + 4s + 2s per quote.
	assert.Equal(t, 16*time.Second+3*7*time.Second, clock.Now().Sub(unlockDate))
}

func TestCarousel_FadesAroundEachText(t *testing.T) {
	clock := newFakeClock(unlockDate)
	stage := &recordingStage{clock: clock}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := Carousel{
		Quotes: []string{"only"},
		OnQuote: func(i int) {
			if clock.Now().After(unlockDate) {
				cancel()
			}
		},
	}
	require.ErrorIs(t, c.run(ctx, newScheduler(clock), stage, ""), context.Canceled)

	var kinds []string
	for _, e := range stage.snapshot() {
		switch e.Kind {
		case "text":
			kinds = append(kinds, "text")
		case "fade":
			if e.On {
				kinds = append(kinds, "in")
			} else {
				kinds = append(kinds, "out")
			}
		}
	}
	assert.Equal(t, []string{"text", "in", "out", "text", "in"}, kinds)
}

func TestCarousel_EmptyQuotes(t *testing.T) {
	clock := newFakeClock(unlockDate)
	stage := &recordingStage{clock: clock}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n := 0
	c := Carousel{OnQuote: func(i int) {
		assert.Zero(t, i)
		n++
		if n == 3 {
			cancel()
		}
	}}
	require.ErrorIs(t, c.run(ctx, newScheduler(clock), stage, ""), context.Canceled)
	assert.Equal(t, []string{fallbackQuote, fallbackQuote, fallbackQuote}, stage.texts(SlotCarousel))
}

func TestCarousel_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := Carousel{Quotes: []string{"never shown long"}}
	err := c.run(ctx, newScheduler(newFakeClock(unlockDate)), &recordingStage{}, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}
