/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package main

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/bruceshao/lapring"
)

// tick 定长行情数据，不含指针，可以直接以字节写入 AnonRing
type tick struct {
	Seq   uint64
	Price int64
	Size  int32
	_     int32
}

func main() {
	fmt.Println("========== start write by ptr ==========")
	writeByPtr()
	fmt.Println("========== complete write by ptr ==========")
	fmt.Println("========== start slow reader ==========")
	slowReader()
	fmt.Println("========== complete slow reader ==========")
}

// writeByPtr 先占位，数据到达后原地填充再提交，模拟从网络直接读取到行中
func writeByPtr() {
	ring, err := lapring.NewAnonRing(16, 5, lapring.WithName("frames"))
	if err != nil {
		panic(err)
	}
	w := ring.Writer()
	r := ring.Reader()
	for i := uint64(1); i <= 3; i++ {
		row := w.Ptr()
		binary.LittleEndian.PutUint64(row, i)
		binary.LittleEndian.PutUint64(row[8:], i*i)
		w.Ready()
	}
	buf := make([]byte, ring.Stride())
	for {
		n, err := r.GetInto(buf)
		if err != nil {
			fmt.Println("reader stopped:", err)
			break
		}
		fmt.Println("frame", binary.LittleEndian.Uint64(buf[:n]), binary.LittleEndian.Uint64(buf[8:n]))
	}
	fmt.Println("find frame 2 at row", ring.Find(binary.LittleEndian.AppendUint64(nil, 2), nil))
}

// slowReader 写入方超过读取方一圈以上，读取方收到 ErrLapped 后从最旧的数据继续
func slowReader() {
	var t tick
	ring, err := lapring.NewAnonRing(len(lapring.Bytes(&t)), 4, lapring.WithName("ticks"))
	if err != nil {
		panic(err)
	}
	w := ring.Writer()
	r := ring.Reader()
	stop := make(chan struct{})
	go func() {
		defer close(stop)
		for i := uint64(1); i <= 20; i++ {
			v := tick{Seq: i, Price: int64(100 + i), Size: int32(i)}
			if _, err := w.Put(lapring.Bytes(&v)); err != nil {
				panic(err)
			}
			time.Sleep(time.Millisecond)
		}
	}()
	for done := false; !done; {
		select {
		case <-stop:
			done = true
		default:
		}
		// 读取方明显慢于写入方
		time.Sleep(3 * time.Millisecond)
		for {
			var got tick
			err := r.GetFunc(func(row []byte) {
				_ = lapring.Decode(row, &got)
			})
			if err == lapring.ErrLapped {
				at, _ := r.Position()
				fmt.Println("lapped, resume at row", at)
				continue
			}
			if err != nil {
				break
			}
			fmt.Println("tick", got.Seq, got.Price, got.Size)
		}
	}
}
