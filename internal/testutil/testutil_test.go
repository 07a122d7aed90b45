package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patcheck/internal/layout"
)

func TestSteppingClock(t *testing.T) {
	c := NewSteppingClock(Epoch, time.Second)
	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Second), c.Now())

	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestSteppingClock_ThreadSafe(t *testing.T) {
	c := NewSteppingClock(Epoch, time.Millisecond)
	const goroutines = 50

	seen := make(chan time.Time, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, goroutines)
}

func TestFixedRunID(t *testing.T) {
	assert.Equal(t, DefaultRunID, FixedRunID("").Generate())
	id := FixedRunID("run-1")
	assert.Equal(t, "run-1", id.Generate())
	assert.Equal(t, "run-1", id.Generate())
}

func TestWriteFixtureGDS(t *testing.T) {
	path := WriteFixtureGDS(t, t.TempDir(), "fixture.gds")

	lib, err := layout.NewRegistry().Decode(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, lib.Cells, 1)
	assert.Equal(t, "SQUARES", lib.Cells[0].Name)
	assert.Equal(t, FixtureRule, lib.Cells[0].Labels[0].Text)
}
