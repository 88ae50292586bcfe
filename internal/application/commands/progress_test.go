package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	p := NewProgress()
	ch, cancel := p.Subscribe()

	p.Start(4)
	p.Increment()
	p.Increment()

	assert.Equal(t, ProgressSnapshot{Total: 4, Completed: 2}, p.Snapshot())
	assert.InDelta(t, 0.5, p.Snapshot().Fraction(), 1e-9)

	select {
	case snap := <-ch:
		assert.Equal(t, ProgressSnapshot{Total: 4, Completed: 2}, snap, "subscriber sees the latest snapshot")
	default:
		t.Fatal("expected a snapshot")
	}

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	p.Reset()
	assert.Equal(t, ProgressSnapshot{}, p.Snapshot())
	assert.Zero(t, p.Snapshot().Fraction())
}
