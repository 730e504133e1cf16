/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type collectHandler struct {
	mu   sync.Mutex
	vals []uint64
	laps []int
}

func (h *collectHandler) OnEvent(v uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.vals = append(h.vals, v)
}

func (h *collectHandler) OnLapped(oldest int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.laps = append(h.laps, oldest)
}

func (h *collectHandler) snapshot() ([]uint64, []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint64(nil), h.vals...), append([]int(nil), h.laps...)
}

func (h *collectHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.vals)
}

func quietOptions(extra ...Option) []Option {
	return append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, extra...)
}

func TestFollower(t *testing.T) {
	defer goleak.VerifyNone(t)
	ring, err := NewRing[uint64](1024, quietOptions()...)
	require.NoError(t, err)
	h := &collectHandler{}
	f := NewFollower(ring.Reader(), EventHandler[uint64](h))
	_, err = uuid.Parse(f.ID())
	require.NoError(t, err)

	require.NoError(t, f.Start())
	assert.True(t, f.Running())
	w := ring.Writer()
	for v := uint64(1); v <= 100; v++ {
		_, err := w.Put(v)
		require.NoError(t, err)
	}
	require.Eventually(t, func() bool { return h.count() == 100 }, 2*time.Second, time.Millisecond)
	require.NoError(t, f.Close())
	assert.False(t, f.Running())

	vals, laps := h.snapshot()
	assert.Empty(t, laps)
	for i, v := range vals {
		assert.Equal(t, uint64(i+1), v)
	}
}

func TestFollowerStartClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	ring, err := NewRing[uint64](2, quietOptions()...)
	require.NoError(t, err)
	f := NewFollower(ring.Reader(), EventHandler[uint64](HandlerFunc[uint64](func(uint64) {})))

	assert.Error(t, f.Close())
	require.NoError(t, f.Start())
	assert.Error(t, f.Start())
	require.NoError(t, f.Close())
	assert.ErrorIs(t, f.Close(), ErrClosed)

	// 关闭后可以再次启动
	require.NoError(t, f.Start())
	require.NoError(t, f.Close())
}

func TestFollowerLapped(t *testing.T) {
	defer goleak.VerifyNone(t)
	ring, err := NewRing[uint64](4, quietOptions()...)
	require.NoError(t, err)
	w := ring.Writer()
	rc := ring.Reader()
	for v := uint64(1); v <= 10; v++ {
		_, err := w.Put(v)
		require.NoError(t, err)
	}

	h := &collectHandler{}
	f := NewFollower(rc, EventHandler[uint64](h))
	require.NoError(t, f.Start())
	require.Eventually(t, func() bool { return h.count() == 4 }, 2*time.Second, time.Millisecond)
	require.NoError(t, f.Close())

	vals, laps := h.snapshot()
	assert.Equal(t, []uint64{7, 8, 9, 10}, vals)
	assert.Equal(t, []int{2}, laps)
}

func TestFollowerBlockStrategies(t *testing.T) {
	defer goleak.VerifyNone(t)
	strategies := map[string]Option{
		"sched": WithBlockStrategy(NewSchedBlockStrategy()),
		"sleep": WithBlockStrategy(NewSleepBlockStrategy(time.Microsecond)),
		"chan":  WithBlockStrategy(NewChanBlockStrategy()),
		"cond":  WithBlockStrategy(NewConditionBlockStrategy()),
	}
	const total = 10000
	for name, opt := range strategies {
		t.Run(name, func(t *testing.T) {
			ring, err := NewRing[uint64](2, quietOptions(opt)...)
			require.NoError(t, err)
			h := &collectHandler{}
			f := NewFollower(ring.Reader(), EventHandler[uint64](h))
			require.NoError(t, f.Start())

			var wg sync.WaitGroup
			wg.Add(10)
			for i := 0; i < 10; i++ {
				go func(start uint64) {
					defer wg.Done()
					w := ring.Writer()
					for j := uint64(0); j < total/10; j++ {
						_, err := w.Put(start + j)
						assert.NoError(t, err)
					}
				}(uint64(i * total / 10))
			}
			wg.Wait()
			require.Eventually(t, func() bool {
				last, _ := ring.Last()
				vals, _ := h.snapshot()
				return len(vals) > 0 && vals[len(vals)-1] == last
			}, 2*time.Second, time.Millisecond)
			require.NoError(t, f.Close())

			// 容量为2，Follower 跟不上时被套圈，但不会重复读取同一次写入
			s := ring.Stats().Summary()
			assert.Equal(t, int64(total), s.Writes)
			assert.LessOrEqual(t, s.Reads, int64(total))
			assert.Equal(t, int64(h.count()), s.Reads)
		})
	}
}

func TestFollowerCloseWhileBlocked(t *testing.T) {
	defer goleak.VerifyNone(t)
	for _, opt := range []Option{
		WithBlockStrategy(NewChanBlockStrategy()),
		WithBlockStrategy(NewConditionBlockStrategy()),
	} {
		ring, err := NewRing[uint64](2, quietOptions(opt)...)
		require.NoError(t, err)
		f := NewFollower(ring.Reader(), EventHandler[uint64](&collectHandler{}))
		require.NoError(t, f.Start())
		time.Sleep(5 * time.Millisecond)
		require.NoError(t, f.Close())
	}
}

// holdingHandler 在 OnEvent 中持有第一行，等待写入方套圈后再检查内容
type holdingHandler struct {
	entered chan []byte
	resume  chan struct{}
	after   chan string
	once    sync.Once
}

func (h *holdingHandler) OnEvent(row []byte) {
	first := false
	h.once.Do(func() { first = true })
	if !first {
		return
	}
	h.entered <- row
	<-h.resume
	h.after <- string(row)
}

func TestFollowerRowSurvivesLap(t *testing.T) {
	defer goleak.VerifyNone(t)
	ring, err := NewAnonRing(4, 2, quietOptions()...)
	require.NoError(t, err)
	h := &holdingHandler{
		entered: make(chan []byte, 1),
		resume:  make(chan struct{}),
		after:   make(chan string, 1),
	}
	f := NewFollower(ring.Lappable.Reader(), EventHandler[[]byte](h))
	require.NoError(t, f.Start())

	w := ring.Writer()
	_, err = w.Put([]byte("aaaa"))
	require.NoError(t, err)
	row := <-h.entered
	assert.Equal(t, "aaaa", string(row))

	_, err = w.Put([]byte("bbbb"))
	require.NoError(t, err)
	_, err = w.Put([]byte("cccc"))
	require.NoError(t, err)
	close(h.resume)
	assert.Equal(t, "aaaa", <-h.after)
	require.NoError(t, f.Close())
}

func TestFollowerConcurrentStartClose(t *testing.T) {
	defer goleak.VerifyNone(t)
	ring, err := NewRing[uint64](4, quietOptions()...)
	require.NoError(t, err)
	f := NewFollower(ring.Reader(), EventHandler[uint64](HandlerFunc[uint64](func(uint64) {})))

	var wg sync.WaitGroup
	wg.Add(8)
	for i := 0; i < 8; i++ {
		go func(start bool) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if start {
					_ = f.Start()
				} else {
					_ = f.Close()
				}
			}
		}(i%2 == 0)
	}
	wg.Wait()
	if f.Running() {
		require.NoError(t, f.Close())
	}
	assert.False(t, f.Running())
}
