/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bruceshao/lapring"
)

var benchCmd = &cobra.Command{
	Use:   "bench [ring|chan]",
	Short: "Compare ring and channel throughput with one writer",
	Long: `Write count values with a single writer and read them with several readers.
The ring delivers every value to every reader that keeps up and reports laps for
those that do not; the channel hands each value to exactly one reader.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"ring", "chan"},
	RunE:      runBench,
}

func init() {
	f := benchCmd.Flags()
	f.Int("bench-capacity", 1024*1024, "ring and channel capacity")
	f.Int("count", 10_000_000, "number of values to write")
	f.Int("readers", 1, "number of readers")
	f.String("cpuprofile", "", "write a CPU profile to this file")
	rootCmd.AddCommand(benchCmd)
}

type benchResult struct {
	name    string
	elapsed time.Duration
	reads   int64
	laps    int64
}

func (r benchResult) print(w io.Writer) {
	fmt.Fprintln(w, "====="+r.name+"[", r.elapsed, "]=====")
	fmt.Fprintf(w, "reads: %d, laps: %d\n", r.reads, r.laps)
}

func runBench(cmd *cobra.Command, args []string) error {
	capacity := lapring.RoundCapacity(viper.GetInt("bench-capacity"))
	count := viper.GetInt("count")
	readers := viper.GetInt("readers")
	if count < 1 || readers < 1 {
		return errors.New("count and readers must be positive")
	}

	if path := viper.GetString("cpuprofile"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	which := ""
	if len(args) > 0 {
		which = args[0]
	}
	out := cmd.OutOrStdout()
	if which == "" || which == "ring" {
		res, err := ringBench(capacity, count, readers)
		if err != nil {
			return err
		}
		res.print(out)
	}
	if which == "" || which == "chan" {
		chanBench(capacity, count, readers).print(out)
	}
	return nil
}

// ringBench 每个读者独立读取全部数据，跟不上时被套圈并跳到最旧的数据
func ringBench(capacity, count, readers int) (benchResult, error) {
	ring, err := lapring.NewRing[uint64](capacity, lapring.WithName("bench"))
	if err != nil {
		return benchResult{}, err
	}
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		res   = benchResult{name: "ring"}
		last  = uint64(count)
		ready = make(chan struct{})
	)
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		rc := ring.ReaderFromNow()
		go func() {
			defer wg.Done()
			<-ready
			var reads, laps int64
			for {
				v, err := rc.Get()
				if err == nil {
					reads++
					if v == last {
						break
					}
					continue
				}
				if err == lapring.ErrLapped {
					laps++
					continue
				}
				runtime.Gosched()
			}
			mu.Lock()
			res.reads += reads
			res.laps += laps
			mu.Unlock()
		}()
	}
	ts := time.Now()
	close(ready)
	w := ring.Writer()
	for v := uint64(1); v <= last; v++ {
		if _, err := w.Put(v); err != nil {
			return res, err
		}
	}
	wg.Wait()
	res.elapsed = time.Since(ts)
	return res, nil
}

// chanBench 每个值只会被一个读者取走
func chanBench(capacity, count, readers int) benchResult {
	c := make(chan uint64, capacity)
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res = benchResult{name: "channel"}
	)
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			var reads int64
			for range c {
				reads++
			}
			mu.Lock()
			res.reads += reads
			mu.Unlock()
		}()
	}
	ts := time.Now()
	for v := uint64(1); v <= uint64(count); v++ {
		c <- v
	}
	close(c)
	wg.Wait()
	res.elapsed = time.Since(ts)
	return res
}
