/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

// NoIndex 表示不存在的下标，例如空buffer的最旧位置或查找未命中
const NoIndex = -1

// position 写游标，记录下一个要写入的位置以及是否写入过数据
// 容量为2^n时通过&运算回绕，否则使用取余运算
// 本身不做任何同步，由外层（Lappable）加锁保护
type position struct {
	at       int
	capacity int
	mask     int
	pow2     bool
	written  bool
}

func newMaskPosition(capacity int) position {
	return position{capacity: capacity, mask: capacity - 1, pow2: true}
}

func newModPosition(rows int) position {
	return position{capacity: rows}
}

func (p *position) wrap(i int) int {
	if p.pow2 {
		return i & p.mask
	}
	return i % p.capacity
}

// advance 推进写位置，返回刚刚提交的位置
func (p *position) advance() int {
	prev := p.at
	p.at = p.wrap(p.at + 1)
	p.written = true
	return prev
}

// last 最近一次提交的位置，从未写入时返回 NoIndex
func (p *position) last() int {
	if !p.written {
		return NoIndex
	}
	return p.wrap(p.at + p.capacity - 1)
}

func (p *position) valid(i int) bool {
	return i >= 0 && i < p.capacity
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// RoundCapacity 返回不小于 n 的最小2^n容量，最小为 2
func RoundCapacity(n int) int {
	if n <= 2 {
		return 2
	}
	c := 1
	for c < n {
		c <<= 1
	}
	return c
}
