/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package main

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bruceshao/lapring"
)

var total = uint64(10_000_000)

func main() {
	// 计时
	now := time.Now()

	// 创建容量为 1M 的 ring，Follower 读不到数据时 condition 等待
	ring, err := lapring.NewRing[uint64](1024*1024,
		lapring.WithName("simple"),
		lapring.WithBlockStrategy(lapring.NewConditionBlockStrategy()),
	)
	if err != nil {
		panic(err)
	}

	// 创建事件处理器
	handler := &eventHandler{
		signal: make(chan struct{}),
		now:    now,
	}

	// 创建并启动 Follower
	follower := lapring.NewFollower(ring.Reader(), lapring.EventHandler[uint64](handler))
	if err := follower.Start(); err != nil {
		panic(err)
	}

	// 单个写入方
	w := ring.Writer()
	for v := uint64(1); v <= total; v++ {
		if _, err := w.Put(v); err != nil {
			panic(err)
		}
	}
	fmt.Printf("writer done, write count: %v, time cost: %v\n", total, time.Since(now))

	// 等待 Follower 读到最后一个值
	handler.wait()

	if err := follower.Close(); err != nil {
		panic(err)
	}
	fmt.Printf("laps: %d, reads: %d\n", handler.laps.Load(), ring.Stats().Reads())
}

type eventHandler struct {
	signal chan struct{}
	reads  atomic.Uint64
	laps   atomic.Uint64
	now    time.Time
}

func (h *eventHandler) OnEvent(v uint64) {
	cur := h.reads.Add(1)
	if v == total {
		fmt.Printf("follower read the last value, read count: %v, time cost: %v\n", cur, time.Since(h.now))
		close(h.signal)
		return
	}
	if cur%1_000_000 == 0 {
		fmt.Printf("follower read %v\n", cur)
	}
}

// OnLapped 读取速度跟不上写入时，跳过被覆盖的数据
func (h *eventHandler) OnLapped(oldest int) {
	h.laps.Add(1)
}

func (h *eventHandler) wait() {
	<-h.signal
}
