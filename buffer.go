/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import "reflect"

// Buffer 定长类型存储，通过数组（定长切片）实现环状数据结构
// 容量必须是2^n，通过&运算回绕；对象非指针存放，构造时一次性申请内存
// Buffer 不做任何同步，只能在单个g中使用或由外部加锁
type Buffer[T any] struct {
	pos position
	buf []T
}

// NewBuffer 创建容量为 capacity 的类型存储，capacity 必须是2的指数倍
func NewBuffer[T any](capacity int) (*Buffer[T], error) {
	if !isPowerOfTwo(capacity) {
		return nil, WrapFatal(ErrCapacity, "Buffer", "NewBuffer", "capacity check")
	}
	return &Buffer[T]{
		pos: newMaskPosition(capacity),
		buf: make([]T, capacity),
	}, nil
}

// Write 复制 v 到当前写位置并推进，返回写入的下标
func (b *Buffer[T]) Write(v T) int {
	i := b.pos.at
	b.buf[i] = v
	b.pos.advance()
	return i
}

// Emplace 在当前写位置原地构造对象后推进，避免一次复制
func (b *Buffer[T]) Emplace(fn func(slot *T)) int {
	i := b.pos.at
	fn(&b.buf[i])
	b.pos.advance()
	return i
}

// At 返回当前可写位置的地址，不推进；在 Next 之前重复调用结果相同
func (b *Buffer[T]) At() *T {
	return &b.buf[b.pos.at]
}

// Next 推进写位置，返回刚刚提交的位置的地址
func (b *Buffer[T]) Next() *T {
	return &b.buf[b.pos.advance()]
}

// Last 最近一次提交的位置，从未写入时返回 false
func (b *Buffer[T]) Last() (*T, bool) {
	i := b.pos.last()
	if i == NoIndex {
		return nil, false
	}
	return &b.buf[i], true
}

// Index 按下标访问，越界返回 ErrOutOfRange
func (b *Buffer[T]) Index(i int) (*T, error) {
	if !b.pos.valid(i) {
		return nil, WrapInvalid(ErrOutOfRange, "Buffer", "Index", "bounds check")
	}
	return &b.buf[i], nil
}

// Find 在 [lo, hi) 中线性查找 v，eq 为空时使用 reflect.DeepEqual
// 不区分槽位是否被写入过，调用方需要自己清楚当前圈的写入情况
func (b *Buffer[T]) Find(v T, eq func(a, b T) bool, lo, hi int) int {
	if eq == nil {
		eq = b.equal
	}
	return scan(span{lo, hi}.clamp(b.pos.capacity), func(i int) bool {
		return eq(b.buf[i], v)
	})
}

func (b *Buffer[T]) Capacity() int {
	return b.pos.capacity
}

func (b *Buffer[T]) WriteAt() int {
	return b.pos.at
}

func (b *Buffer[T]) HasData() bool {
	return b.pos.written
}

func (b *Buffer[T]) cursor() *position {
	return &b.pos
}

func (b *Buffer[T]) slot(i int) *T {
	return &b.buf[i]
}

func (b *Buffer[T]) load(i int) T {
	return b.buf[i]
}

func (b *Buffer[T]) loadInto(i int, _ T) T {
	return b.buf[i]
}

// scratch 值类型按值返回，不需要读缓冲
func (b *Buffer[T]) scratch() T {
	var zero T
	return zero
}

func (b *Buffer[T]) put(v T) (int, error) {
	return b.Write(v), nil
}

func (b *Buffer[T]) equal(x, y T) bool {
	return reflect.DeepEqual(x, y)
}

// Equal 可比较类型的相等判断，可直接作为 Find 的 eq 参数
func Equal[T comparable](a, b T) bool {
	return a == b
}
