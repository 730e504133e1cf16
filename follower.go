/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Follower 消费者，独占一个读游标，由一个 g 持续读取并交给 EventHandler 处理
// 读取不到数据时按 ring 的阻塞策略等待写入方，被套圈时回调 LapHandler 后继续读取
type Follower[S, V any] struct {
	id     string
	rc     *ReadCursor[S, V]
	hdl    EventHandler[V]
	logger *slog.Logger
	status atomic.Int32
	mu     sync.Mutex // 串行化 Start 与 Close，保护 done
	done   chan struct{}
}

// NewFollower 创建 Follower，rc 交由 Follower 独占，调用方之后不能再使用它
func NewFollower[S, V any](rc *ReadCursor[S, V], hdl EventHandler[V]) *Follower[S, V] {
	id := uuid.NewString()
	return &Follower[S, V]{
		id:     id,
		rc:     rc,
		hdl:    hdl,
		logger: rc.ring.logger.With(slog.String("ring", rc.ring.name), slog.String("follower", id)),
	}
}

func (f *Follower[S, V]) ID() string {
	return f.id
}

func (f *Follower[S, V]) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.CompareAndSwap(READY, RUNNING) {
		f.done = make(chan struct{})
		go f.handle(f.done)
		f.logger.Info("follower started")
		return nil
	}
	return fmt.Errorf(StartErrorFormat, "Follower")
}

func (f *Follower[S, V]) Running() bool {
	return f.status.Load() == RUNNING
}

// Close 停止读取并等待 g 退出
func (f *Follower[S, V]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.CompareAndSwap(RUNNING, READY) {
		// 防止阻塞无法释放
		f.rc.ring.wake()
		<-f.done
		f.logger.Info("follower closed")
		return nil
	}
	return fmt.Errorf(CloseErrorFormat+": %w", "Follower", ErrClosed)
}

func (f *Follower[S, V]) closed() bool {
	return f.status.Load() == READY
}

func (f *Follower[S, V]) handle(done chan struct{}) {
	defer close(done)
	l := f.rc.ring
	for {
		// 先记录唤醒代数再检查状态和读取，之后的写入或 Close 一定会改变它，不会错过唤醒
		seen := l.gen.Load()
		if f.closed() {
			return
		}
		v, err := f.rc.Get()
		switch err {
		case nil:
			f.hdl.OnEvent(v)
		case ErrLapped:
			oldest, _ := f.rc.Position()
			f.logger.Warn("follower lapped", slog.Int("oldest", oldest))
			if lh, ok := f.hdl.(LapHandler); ok {
				lh.OnLapped(oldest)
			}
		default:
			l.blocks.block(&l.gen, seen)
		}
	}
}
