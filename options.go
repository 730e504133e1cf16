/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option ring 的可选配置
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
	reg    prometheus.Registerer
	blocks blockStrategy
}

// WithName 设置 ring 名称，用于日志和指标标签
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger 设置日志，默认使用 slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics 将统计同时导出为 Prometheus 指标，指标以 ring 名称作为标签
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.reg = reg
	}
}

// WithBlockStrategy 设置 Follower 读取不到数据时的等待策略，默认休眠 1ms
func WithBlockStrategy(blocks blockStrategy) Option {
	return func(o *options) {
		if blocks != nil {
			o.blocks = blocks
		}
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{
		name:   "default",
		logger: slog.Default(),
		blocks: NewSleepBlockStrategy(defaultSleep),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
