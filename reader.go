/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"context"
	"log/slog"
)

// ReadCursor 读游标
// 自身状态（读位置、最后观察到的圈数、读缓冲）不加锁，只能由创建它的 g 使用；
// 每次读取时在 ring 的锁内与写位置、圈数比较，判断数据是否可读、是否已被覆盖
type ReadCursor[S, V any] struct {
	ring   *Lappable[S, V]
	buf    V // 读缓冲，byte 行在锁内复制到这里
	readAt int
	lap    uint64
	err    error
}

// Peek 读取当前位置的值，不推进
// 返回 ErrEmpty 表示暂无未读数据；返回 ErrLapped 表示将要读取的数据已被覆盖，
// 游标已被定位到最旧的有效数据，下一次读取即可成功
func (r *ReadCursor[S, V]) Peek() (V, error) {
	l := r.ring
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := r.classifyLocked(); err != nil {
		var zero V
		return zero, err
	}
	l.stats.peeks.Add(1)
	if l.metrics != nil {
		l.metrics.peeks.Inc()
	}
	return l.st.loadInto(r.readAt, r.buf), nil
}

// Get 读取当前位置的值，成功时推进读位置
// byte 行在锁内复制到读游标自己的缓冲中，之后的写入不会改变返回的内容，
// 但该缓冲会在同一读游标的下一次读取时被复用
func (r *ReadCursor[S, V]) Get() (V, error) {
	l := r.ring
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := r.classifyLocked(); err != nil {
		var zero V
		return zero, err
	}
	v := l.st.loadInto(r.readAt, r.buf)
	r.advanceLocked()
	return v, nil
}

// PeekFunc 在锁内以槽位地址调用 fn，不推进；fn 中不能再调用该 ring 的方法
func (r *ReadCursor[S, V]) PeekFunc(fn func(slot S)) error {
	l := r.ring
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := r.classifyLocked(); err != nil {
		return err
	}
	l.stats.peeks.Add(1)
	if l.metrics != nil {
		l.metrics.peeks.Inc()
	}
	fn(l.st.slot(r.readAt))
	return nil
}

// GetFunc 在锁内以槽位地址调用 fn，成功时推进
func (r *ReadCursor[S, V]) GetFunc(fn func(slot S)) error {
	l := r.ring
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := r.classifyLocked(); err != nil {
		return err
	}
	fn(l.st.slot(r.readAt))
	r.advanceLocked()
	return nil
}

// GetBatch 一次加锁最多读取 max 个值，返回读取的个数以及中止读取的状态
// 读满 max 个时状态为 nil
func (r *ReadCursor[S, V]) GetBatch(max int, fn func(v V)) (int, error) {
	l := r.ring
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for n < max {
		if err := r.classifyLocked(); err != nil {
			return n, err
		}
		fn(l.st.loadInto(r.readAt, r.buf))
		r.advanceLocked()
		n++
	}
	return n, nil
}

// Swap 直接将读游标移动到 i，返回原位置
// 不会重新计算圈数，之后的读取按当前圈数判断，可能返回 ErrLapped；需要同步圈数时使用 Seek
func (r *ReadCursor[S, V]) Swap(i int) (int, error) {
	if !r.ring.pos.valid(i) {
		return r.readAt, WrapInvalid(ErrOutOfRange, "ReadCursor", "Swap", "bounds check")
	}
	prev := r.readAt
	r.readAt = i
	return prev, nil
}

// Seek 将读游标移动到 i，并根据写位置重新推导圈数：
// i 在写位置之前时与写入方同圈，否则落后写入方一圈（第一圈时同圈）
func (r *ReadCursor[S, V]) Seek(i int) (int, error) {
	l := r.ring
	if !l.pos.valid(i) {
		return r.readAt, WrapInvalid(ErrOutOfRange, "ReadCursor", "Seek", "bounds check")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	prev := r.readAt
	r.readAt = i
	if i < l.pos.at || l.lap == 0 {
		r.lap = l.lap
	} else {
		r.lap = l.lap - 1
	}
	return prev, nil
}

// Err 最近一次读取的状态
func (r *ReadCursor[S, V]) Err() error {
	return r.err
}

// Position 读位置及最后观察到的圈数
func (r *ReadCursor[S, V]) Position() (int, uint64) {
	return r.readAt, r.lap
}

// classifyLocked 判断读游标相对于写游标的位置，必须持有锁
func (r *ReadCursor[S, V]) classifyLocked() error {
	l := r.ring
	r.err = nil

	if !l.pos.written {
		return r.fail(ErrEmpty)
	}

	switch {
	case r.readAt < l.pos.at:
		// 写入方在本圈已经越过读位置，读游标必须与写入方同圈，落后则数据已被覆盖
		if r.lap != l.lap {
			r.relapLocked()
			return r.fail(ErrLapped)
		}
	case r.readAt == l.pos.at:
		// 同圈表示已经读完；落后一圈表示正好在最旧的数据上；落后更多则已被覆盖
		if r.lap == l.lap {
			return r.fail(ErrEmpty)
		}
		if r.lap+1 != l.lap {
			r.relapLocked()
			return r.fail(ErrLapped)
		}
	default:
		// 读位置在写位置之后，只有正好落后一圈才是有效数据
		if r.lap+1 != l.lap {
			r.relapLocked()
			return r.fail(ErrLapped)
		}
	}
	return nil
}

// relapLocked 被套圈后定位到最旧的数据，并落后写入方一圈，使下一次读取直接成功
func (r *ReadCursor[S, V]) relapLocked() {
	l := r.ring
	r.lap = 0
	if l.lap > 0 {
		r.lap = l.lap - 1
	}
	r.readAt = l.oldestLocked()
	if l.logger.Enabled(context.Background(), slog.LevelDebug) {
		l.logger.Debug("reader lapped",
			slog.String("ring", l.name),
			slog.Uint64("lap", l.lap),
			slog.Int("oldest", r.readAt))
	}
}

func (r *ReadCursor[S, V]) advanceLocked() {
	l := r.ring
	r.readAt = l.pos.wrap(r.readAt + 1)
	if r.readAt == 0 {
		r.lap++
	}
	l.stats.reads.Add(1)
	if l.metrics != nil {
		l.metrics.reads.Inc()
	}
}

func (r *ReadCursor[S, V]) fail(err error) error {
	l := r.ring
	r.err = err
	if err == ErrLapped {
		l.stats.lapped.Add(1)
		if l.metrics != nil {
			l.metrics.lapped.Inc()
		}
	} else {
		l.stats.empties.Add(1)
		if l.metrics != nil {
			l.metrics.empties.Inc()
		}
	}
	return err
}
