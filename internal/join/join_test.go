package join

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettle_PreservesOrder(t *testing.T) {
	fns := []func(context.Context) (int, error){
		func(context.Context) (int, error) { return 1, nil },
		func(context.Context) (int, error) { return 2, nil },
		func(context.Context) (int, error) { return 3, nil },
	}

	results := Settle(context.Background(), fns)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, i+1, r.Value)
	}
}

func TestSettle_FailureDoesNotCancelSiblings(t *testing.T) {
	boom := errors.New("boom")
	fns := []func(context.Context) (string, error){
		func(context.Context) (string, error) { return "", boom },
		func(context.Context) (string, error) { return "ok", nil },
	}

	results := Settle(context.Background(), fns)

	assert.ErrorIs(t, results[0].Err, boom)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "ok", results[1].Value)
}

func TestSettle_RecoversPanic(t *testing.T) {
	fns := []func(context.Context) (int, error){
		func(context.Context) (int, error) { panic("bad item") },
		func(context.Context) (int, error) { return 7, nil },
	}

	results := Settle(context.Background(), fns)

	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "bad item")
	assert.Equal(t, 7, results[1].Value)
}

func TestSettle_Empty(t *testing.T) {
	results := Settle[int](context.Background(), nil)
	assert.Empty(t, results)
}

func TestMap_RespectsLimit(t *testing.T) {
	var active, peak atomic.Int32

	items := make([]int, 20)
	results := Map(context.Background(), 5, items, func(context.Context, int) (int, error) {
		cur := active.Add(1)
		defer active.Add(-1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		return 0, nil
	})

	require.Len(t, results, 20)
	assert.LessOrEqual(t, peak.Load(), int32(5))
}

func TestMap_OrderAndErrors(t *testing.T) {
	items := []int{1, 2, 3}
	results := Map(context.Background(), 0, items, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("two")
		}
		return n * 10, nil
	})

	assert.Equal(t, 10, results[0].Value)
	assert.Error(t, results[1].Err)
	assert.Equal(t, 30, results[2].Value)
}
