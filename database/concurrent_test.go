package database

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcurrentMapPreservesOrder(t *testing.T) {
	inputs := []int{1, 2, 3, 4, 5}
	outputs, err := ConcurrentMap(inputs, 3, func(n int) (int, error) {
		return n * n, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 4, 9, 16, 25}, outputs)
}

func TestConcurrentMapPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ConcurrentMap([]int{1, 2, 3}, 2, func(n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestConcurrentMapZeroConcurrencyIsSequential(t *testing.T) {
	var inFlight int32
	var maxInFlight int32
	inputs := make([]int, 10)
	for i := range inputs {
		inputs[i] = i
	}

	_, err := ConcurrentMap(inputs, 0, func(n int) (int, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			old := atomic.LoadInt32(&maxInFlight)
			if cur <= old || atomic.CompareAndSwapInt32(&maxInFlight, old, cur) {
				break
			}
		}
		return n, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight), "concurrency 0 must run one input at a time")
}

func TestConcurrentMapEmptyInput(t *testing.T) {
	outputs, err := ConcurrentMap([]string{}, -1, func(s string) (string, error) {
		t.Fatal("f should never be called for an empty input slice")
		return s, nil
	})
	assert.NoError(t, err)
	assert.Empty(t, outputs)
}
