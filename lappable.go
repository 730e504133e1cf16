/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// slotStore 槽位访问接口，Buffer 与 AnonBuffer 都实现了它
// S 为槽位地址（*T 或 []byte），V 为读写的值（T 或 []byte）
type slotStore[S, V any] interface {
	cursor() *position
	slot(i int) S
	load(i int) V
	loadInto(i int, dst V) V
	scratch() V
	put(v V) (int, error)
	equal(a, b V) bool
}

// Lappable 带圈数检测的ring，在存储之上增加一把锁和一个圈数计数器
// 锁保护 (写位置, 圈数, 是否写入过) 三元组；写位置每回绕到0一次，圈数加一
// 读写游标持有 Lappable 的引用，Lappable 本身不持有游标
type Lappable[S, V any] struct {
	mu      sync.Mutex
	lap     uint64
	st      slotStore[S, V]
	pos     *position
	gen     atomic.Uint64 // 唤醒代数，只用于 Follower 的阻塞策略
	name    string
	stats   *Statistics
	metrics *ringMetrics
	logger  *slog.Logger
	blocks  blockStrategy
}

func newLappable[S, V any](st slotStore[S, V], o *options) (*Lappable[S, V], error) {
	l := &Lappable[S, V]{
		st:     st,
		pos:    st.cursor(),
		name:   o.name,
		stats:  newStatistics(),
		logger: o.logger,
		blocks: o.blocks,
	}
	if o.reg != nil {
		m, err := newRingMetrics(o.reg, o.name)
		if err != nil {
			return nil, WrapFatal(err, "Lappable", "newLappable", "metrics registration")
		}
		l.metrics = m
	}
	return l, nil
}

// Writer 创建写游标，可以创建多个，但只有一个逻辑写入方时语义才有意义
func (l *Lappable[S, V]) Writer() *WriteCursor[S, V] {
	return &WriteCursor[S, V]{ring: l}
}

// Reader 创建从第0个位置、第0圈开始读取的读游标
// 创建时若已发生回绕，第一次读取会返回 ErrLapped 并定位到最旧的数据
func (l *Lappable[S, V]) Reader() *ReadCursor[S, V] {
	return &ReadCursor[S, V]{ring: l, buf: l.st.scratch()}
}

// ReaderFromNow 创建从当前写位置开始的读游标，只读取之后写入的数据
func (l *Lappable[S, V]) ReaderFromNow() *ReadCursor[S, V] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &ReadCursor[S, V]{ring: l, buf: l.st.scratch(), readAt: l.pos.at, lap: l.lap}
}

// Oldest 最旧数据的位置：未写入过返回 NoIndex；未回绕过为0；否则为当前写位置
func (l *Lappable[S, V]) Oldest() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.oldestLocked()
}

func (l *Lappable[S, V]) oldestLocked() int {
	if !l.pos.written {
		return NoIndex
	}
	if l.lap == 0 {
		return 0
	}
	return l.pos.at
}

// Lap 写位置回绕的次数
func (l *Lappable[S, V]) Lap() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lap
}

func (l *Lappable[S, V]) WriteAt() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pos.at
}

func (l *Lappable[S, V]) HasData() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pos.written
}

// Capacity 容量在构造后不变，无需加锁
func (l *Lappable[S, V]) Capacity() int {
	return l.pos.capacity
}

func (l *Lappable[S, V]) Name() string {
	return l.name
}

func (l *Lappable[S, V]) Stats() *Statistics {
	return l.stats
}

// Last 最近一次提交的值，byte 行返回的是副本
func (l *Lappable[S, V]) Last() (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.pos.last()
	if i == NoIndex {
		var zero V
		return zero, false
	}
	return l.st.loadInto(i, l.st.scratch()), true
}

// Index 按下标读取，越界返回 ErrOutOfRange；byte 行返回的是副本
func (l *Lappable[S, V]) Index(i int) (V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pos.valid(i) {
		var zero V
		return zero, WrapInvalid(ErrOutOfRange, "Lappable", "Index", "bounds check")
	}
	return l.st.loadInto(i, l.st.scratch()), nil
}

// Find 查找 v，eq 为空时使用存储的默认比较
// 第一圈只在 [0, 写位置) 中查找，不会命中从未写入的槽位
func (l *Lappable[S, V]) Find(v V, eq func(a, b V) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if eq == nil {
		eq = l.st.equal
	}
	return scan(writtenSpan(l.pos, l.lap), func(i int) bool {
		return eq(l.st.load(i), v)
	})
}

// committedLocked 写位置推进之后调用，回绕到0时圈数加一
func (l *Lappable[S, V]) committedLocked() {
	if l.pos.at == 0 {
		l.lap++
	}
	l.stats.writes.Add(1)
	if l.metrics != nil {
		l.metrics.recordWrite(l.pos.at, l.lap)
	}
}

// wake 唤醒等待中的 Follower，必须在锁外调用
func (l *Lappable[S, V]) wake() {
	l.gen.Add(1)
	l.blocks.release()
}
