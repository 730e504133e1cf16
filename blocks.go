/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// blockStrategy 阻塞策略
// ring 本身从不阻塞，读取不到数据时返回 ErrEmpty；需要等待的一方（Follower）通过该策略等待写入方
// actual 为 ring 的唤醒代数，seen 为读取前观察到的值，actual 与 seen 不一致时表示有新数据或需要退出
type blockStrategy interface {
	// block 阻塞，允许虚假唤醒
	block(actual *atomic.Uint64, seen uint64)

	// release 释放阻塞，写入方每次提交后调用
	release()
}

// SchedBlockStrategy 调度等待策略
// 调用runtime.Gosched()方法使当前 g 主动让出 cpu 资源。
type SchedBlockStrategy struct {
}

func NewSchedBlockStrategy() *SchedBlockStrategy {
	return &SchedBlockStrategy{}
}

func (s *SchedBlockStrategy) block(actual *atomic.Uint64, seen uint64) {
	runtime.Gosched()
}

func (s *SchedBlockStrategy) release() {
}

// SleepBlockStrategy 休眠等待策略
// 调用 Sleep 方法使当前 g 主动让出 cpu 资源。
// sleep poll 参考值:
// 轮询时长为 10us 时，cpu 开销约 2-3% 左右。
// 轮询时长为 5us 时，cpu 开销约在 10% 左右。
// 轮询时长小于 5us 时，cpu 开销接近 100% 满载。
type SleepBlockStrategy struct {
	t time.Duration
}

func NewSleepBlockStrategy(wait time.Duration) *SleepBlockStrategy {
	return &SleepBlockStrategy{
		t: wait,
	}
}

func (s *SleepBlockStrategy) block(actual *atomic.Uint64, seen uint64) {
	if actual.Load() != seen {
		return
	}
	time.Sleep(s.t)
}

func (s *SleepBlockStrategy) release() {
}

// ChanBlockStrategy chan阻塞策略
// 同一时刻只有一个 g 会真正阻塞在 chan 上，其余 g 退化为自旋，适合单个 Follower
type ChanBlockStrategy struct {
	bc chan struct{}
	b  atomic.Uint32
}

func NewChanBlockStrategy() *ChanBlockStrategy {
	return &ChanBlockStrategy{
		bc: make(chan struct{}),
	}
}

func (s *ChanBlockStrategy) block(actual *atomic.Uint64, seen uint64) {
	// 0：未阻塞；1：阻塞
	if s.b.CompareAndSwap(0, 1) {
		// 设置成功的话，表示阻塞，需要进行二次判断
		if actual.Load() != seen {
			// 已经有新数据，此处需要重新将状态调整回来
			if s.b.CompareAndSwap(1, 0) {
				return
			}
			// 表示有其他协程release了，则读取对应chan即可
			<-s.bc
			return
		}
		// 没有新数据，等待被释放即可
		<-s.bc
		return
	}
	// 没有设置成功，表示已有其他 g 阻塞
	runtime.Gosched()
}

func (s *ChanBlockStrategy) release() {
	if s.b.CompareAndSwap(1, 0) {
		// 表示可以释放，即chan是等待状态
		s.bc <- struct{}{}
	}
}

// ConditionBlockStrategy condition 阻塞策略，支持多个 Follower 同时等待
type ConditionBlockStrategy struct {
	cond *sync.Cond
}

func NewConditionBlockStrategy() *ConditionBlockStrategy {
	return &ConditionBlockStrategy{
		cond: sync.NewCond(&sync.Mutex{}),
	}
}

func (s *ConditionBlockStrategy) block(actual *atomic.Uint64, seen uint64) {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	if actual.Load() != seen {
		return
	}
	s.cond.Wait()
}

func (s *ConditionBlockStrategy) release() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.cond.Broadcast()
}
