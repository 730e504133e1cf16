/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"sync/atomic"
	"time"
)

// Statistics 运行统计，始终开启，全部为原子计数
type Statistics struct {
	writes  atomic.Int64
	reads   atomic.Int64
	peeks   atomic.Int64
	empties atomic.Int64
	lapped  atomic.Int64
	start   time.Time
}

func newStatistics() *Statistics {
	return &Statistics{start: time.Now()}
}

func (s *Statistics) Writes() int64 { return s.writes.Load() }

func (s *Statistics) Reads() int64 { return s.reads.Load() }

func (s *Statistics) Peeks() int64 { return s.peeks.Load() }

// Empties 读取时返回 ErrEmpty 的次数
func (s *Statistics) Empties() int64 { return s.empties.Load() }

// Lapped 读取时返回 ErrLapped 的次数
func (s *Statistics) Lapped() int64 { return s.lapped.Load() }

// Throughput 平均每秒写入次数
func (s *Statistics) Throughput() float64 {
	elapsed := time.Since(s.start)
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Writes()) / elapsed.Seconds()
}

// StatsSummary 统计快照
type StatsSummary struct {
	Writes     int64         `json:"writes"`
	Reads      int64         `json:"reads"`
	Peeks      int64         `json:"peeks"`
	Empties    int64         `json:"empties"`
	Lapped     int64         `json:"lapped"`
	Throughput float64       `json:"throughput"`
	Uptime     time.Duration `json:"uptime"`
}

func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Writes:     s.Writes(),
		Reads:      s.Reads(),
		Peeks:      s.Peeks(),
		Empties:    s.Empties(),
		Lapped:     s.Lapped(),
		Throughput: s.Throughput(),
		Uptime:     time.Since(s.start),
	}
}
