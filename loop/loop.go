/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

// Package loop 启动一个 g，按固定频率调用服务函数，可用于定时向 ring 写入数据
package loop

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bruceshao/lapring"
)

// Result 服务函数的返回值
// 返回 Continue 保持当前间隔；返回 Stop 停止循环；返回正数则将其作为新的间隔
type Result = time.Duration

const (
	Continue Result = 0
	Stop     Result = -1

	// DefaultHz 默认调用频率
	DefaultHz = 1000
)

// Func 服务函数
type Func func() Result

// ErrInterval 频率为0或细分后间隔为0
var ErrInterval = errors.New("loop interval must be nonzero")

// HzToInterval 频率转换为间隔，hz 为0时返回0
func HzToInterval(hz uint) time.Duration {
	if hz == 0 {
		return 0
	}
	return time.Second / time.Duration(hz)
}

// Loop 定时循环
// subdiv 表示每调用一次服务函数之前等待的次数：周期较长的循环可以调大它，
// 使每次等待在百毫秒量级，从而更快地响应 Stop
type Loop struct {
	svc    Func
	delay  time.Duration
	subdiv uint
	status atomic.Int32
	mu     sync.Mutex // 串行化 Start 与 Stop，保护 stop 和 done
	stop   chan struct{}
	done   chan struct{}
	logger *slog.Logger
}

// Option Loop 的可选配置
type Option func(*Loop)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New 创建以 hz 频率调用 fn 的循环，subdiv 为0时按1处理
func New(fn Func, hz, subdiv uint, opts ...Option) (*Loop, error) {
	if subdiv == 0 {
		subdiv = 1
	}
	delay := HzToInterval(hz) / time.Duration(subdiv)
	if delay <= 0 {
		return nil, lapring.WrapFatal(ErrInterval, "Loop", "New", "interval check")
	}
	l := &Loop{
		svc:    fn,
		delay:  delay,
		subdiv: subdiv,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Start 启动循环，已经启动时没有任何效果
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.status.CompareAndSwap(lapring.READY, lapring.RUNNING) {
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	go l.run(l.stop, l.done)
	l.logger.Info("loop started", slog.Duration("delay", l.delay), slog.Uint64("subdiv", uint64(l.subdiv)))
}

// Stop 停止循环并等待 g 退出，已经停止时没有任何效果
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.status.CompareAndSwap(lapring.RUNNING, lapring.READY) {
		close(l.stop)
	}
	if l.done != nil {
		<-l.done
	}
}

// Running 服务函数返回 Stop 后同样视为已停止
func (l *Loop) Running() bool {
	return l.status.Load() == lapring.RUNNING
}

// Done 循环退出时关闭，未启动时返回 nil
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	delay := l.delay
	duty := l.subdiv
	timer := time.NewTimer(delay)
	defer timer.Stop()
	for {
		select {
		case <-stop:
			return
		case <-timer.C:
		}
		duty--
		if duty == 0 {
			duty = l.subdiv
			r := l.svc()
			if r == Stop {
				l.status.CompareAndSwap(lapring.RUNNING, lapring.READY)
				l.logger.Info("loop stopped by service function")
				return
			}
			if r > 0 {
				delay = r
			}
		}
		timer.Reset(delay)
	}
}
