/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bruceshao/lapring"
	"github.com/bruceshao/lapring/loop"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Write sequence numbers on a timer and follow them with several readers",
	Long: `Write increasing sequence numbers into a ring at a fixed rate while several
followers consume them. Give the last follower a per-event delay slower than the
writer to watch it get lapped and recover at the oldest surviving element.

Examples:
  lapring run --capacity 64 --rate 2000 --followers 2 --slow-delay 2ms
  LAPRING_RATE=500 lapring run --metrics-addr :9100`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.Int("capacity", 1024, "ring capacity, must be a power of two")
	f.Bool("round", false, "round capacity up to the next power of two")
	f.Uint("rate", 1000, "writes per second")
	f.Uint("subdiv", 1, "timer ticks per write")
	f.Duration("duration", 3*time.Second, "how long to write")
	f.Int("followers", 2, "number of followers")
	f.Duration("slow-delay", 0, "per-event delay of the last follower")
	f.String("strategy", "sleep", "follower block strategy: sched, sleep, chan or cond")
	f.Duration("sleep", time.Millisecond, "poll interval of the sleep strategy")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.AddCommand(runCmd)
}

type runConfig struct {
	Capacity    int
	Round       bool
	Rate        uint
	Subdiv      uint
	Duration    time.Duration
	Followers   int
	SlowDelay   time.Duration
	Strategy    string
	Sleep       time.Duration
	MetricsAddr string
}

func loadRunConfig() runConfig {
	return runConfig{
		Capacity:    viper.GetInt("capacity"),
		Round:       viper.GetBool("round"),
		Rate:        viper.GetUint("rate"),
		Subdiv:      viper.GetUint("subdiv"),
		Duration:    viper.GetDuration("duration"),
		Followers:   viper.GetInt("followers"),
		SlowDelay:   viper.GetDuration("slow-delay"),
		Strategy:    viper.GetString("strategy"),
		Sleep:       viper.GetDuration("sleep"),
		MetricsAddr: viper.GetString("metrics-addr"),
	}
}

type runReport struct {
	Ring      lapring.StatsSummary `json:"ring"`
	Lap       uint64               `json:"lap"`
	Written   uint64               `json:"written"`
	Followers []followerReport     `json:"followers"`
}

type followerReport struct {
	ID     string `json:"id"`
	Events int64  `json:"events"`
	Laps   int64  `json:"laps"`
	Last   uint64 `json:"last"`
}

// countingHandler 统计读取到的事件和被套圈的次数
type countingHandler struct {
	events atomic.Int64
	laps   atomic.Int64
	last   atomic.Uint64
	delay  time.Duration
}

func (h *countingHandler) OnEvent(v uint64) {
	h.events.Add(1)
	h.last.Store(v)
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
}

func (h *countingHandler) OnLapped(oldest int) {
	h.laps.Add(1)
}

func blockOption(name string, sleep time.Duration) (lapring.Option, error) {
	switch name {
	case "sched":
		return lapring.WithBlockStrategy(lapring.NewSchedBlockStrategy()), nil
	case "sleep":
		return lapring.WithBlockStrategy(lapring.NewSleepBlockStrategy(sleep)), nil
	case "chan":
		return lapring.WithBlockStrategy(lapring.NewChanBlockStrategy()), nil
	case "cond":
		return lapring.WithBlockStrategy(lapring.NewConditionBlockStrategy()), nil
	default:
		return nil, fmt.Errorf("unknown block strategy %q", name)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadRunConfig()
	if cfg.Round {
		cfg.Capacity = lapring.RoundCapacity(cfg.Capacity)
	}
	if cfg.Followers < 1 {
		return fmt.Errorf("need at least one follower, got %d", cfg.Followers)
	}
	blocks, err := blockOption(cfg.Strategy, cfg.Sleep)
	if err != nil {
		return err
	}

	logger := slog.Default()
	reg := prometheus.NewRegistry()
	ring, err := lapring.NewRing[uint64](cfg.Capacity,
		lapring.WithName("run"),
		lapring.WithLogger(logger),
		lapring.WithMetrics(reg),
		blocks,
	)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", slog.String("addr", cfg.MetricsAddr), slog.Any("error", err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		logger.Info("serving metrics", slog.String("addr", cfg.MetricsAddr))
	}

	handlers := make([]*countingHandler, cfg.Followers)
	followers := make([]*lapring.Follower[*uint64, uint64], cfg.Followers)
	for i := range followers {
		handlers[i] = &countingHandler{}
		if i == cfg.Followers-1 {
			handlers[i].delay = cfg.SlowDelay
		}
		followers[i] = lapring.NewFollower(ring.Reader(), lapring.EventHandler[uint64](handlers[i]))
		if err := followers[i].Start(); err != nil {
			return err
		}
	}

	w := ring.Writer()
	var seq uint64
	lp, err := loop.New(func() loop.Result {
		seq++
		_, _ = w.Put(seq)
		return loop.Continue
	}, cfg.Rate, cfg.Subdiv, loop.WithLogger(logger))
	if err != nil {
		return err
	}
	lp.Start()
	select {
	case <-time.After(cfg.Duration):
	case <-cmd.Context().Done():
		logger.Info("interrupted")
	}
	lp.Stop()

	// 给 Follower 一点时间读完剩余数据
	time.Sleep(10 * time.Millisecond)

	report := runReport{Lap: ring.Lap(), Written: seq}
	for i, f := range followers {
		if err := f.Close(); err != nil {
			return err
		}
		h := handlers[i]
		report.Followers = append(report.Followers, followerReport{
			ID:     f.ID(),
			Events: h.events.Load(),
			Laps:   h.laps.Load(),
			Last:   h.last.Load(),
		})
	}
	report.Ring = ring.Stats().Summary()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
