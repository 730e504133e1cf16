/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

// span 查找区间 [lo, hi)
type span struct {
	lo, hi int
}

// clamp 将区间限制在 [0, capacity) 之内
func (s span) clamp(capacity int) span {
	if s.lo < 0 {
		s.lo = 0
	}
	if s.hi > capacity {
		s.hi = capacity
	}
	if s.hi < s.lo {
		s.hi = s.lo
	}
	return s
}

// writtenSpan 第一圈只查找已写入的 [0, at)，之后查找整个buffer
func writtenSpan(p *position, lap uint64) span {
	if lap == 0 {
		return span{0, p.at}
	}
	return span{0, p.capacity}
}

// scan 两种存储共用的线性查找，返回第一个命中的下标或 NoIndex
func scan(s span, match func(i int) bool) int {
	for i := s.lo; i < s.hi; i++ {
		if match(i) {
			return i
		}
	}
	return NoIndex
}
