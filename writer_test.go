/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterPtrReady(t *testing.T) {
	ring := newTestRing(t, 2)
	w := ring.Writer()
	rc := ring.Reader()

	p := w.Ptr()
	*p = 5
	assert.Same(t, p, w.Ptr())

	// 提交之前读取不到
	_, err := rc.Get()
	assert.ErrorIs(t, err, ErrEmpty)
	assert.False(t, ring.HasData())

	w.Ready()
	assert.True(t, ring.HasData())
	v, err := rc.Get()
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestWriterLap(t *testing.T) {
	ring := newTestRing(t, 4)
	w := ring.Writer()
	for i := 0; i < 4; i++ {
		assert.Equal(t, uint64(0), ring.Lap())
		idx, err := w.Put(i)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}
	assert.Equal(t, uint64(1), ring.Lap())
	assert.Equal(t, 0, ring.WriteAt())

	for i := 0; i < 9; i++ {
		*w.Ptr() = i
		w.Ready()
	}
	assert.Equal(t, uint64(3), ring.Lap())
	assert.Equal(t, 1, ring.WriteAt())
	assert.Equal(t, int64(13), ring.Stats().Writes())
}

func TestWritersSharePosition(t *testing.T) {
	ring := newTestRing(t, 4)
	w1 := ring.Writer()
	w2 := ring.Writer()
	i, err := w1.Put(1)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	i, err = w2.Put(2)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	vals, _ := drain(ring.Reader())
	assert.Equal(t, []int{1, 2}, vals)
}

func TestAnonWriterRejects(t *testing.T) {
	ring, err := NewAnonRing(4, 2)
	require.NoError(t, err)
	w := ring.Writer()

	i, err := w.Put([]byte("toolong"))
	assert.ErrorIs(t, err, ErrPayloadTooLong)
	assert.Equal(t, NoIndex, i)
	assert.ErrorIs(t, w.Err(), ErrPayloadTooLong)

	i, err = w.Put(nil)
	assert.ErrorIs(t, err, ErrNilPayload)
	assert.Equal(t, NoIndex, i)

	// 被拒绝的写入不推进，也不计入统计
	assert.False(t, ring.HasData())
	assert.Zero(t, ring.WriteAt())
	assert.Zero(t, ring.Stats().Writes())

	i, err = w.Put([]byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	assert.NoError(t, w.Err())
}

func TestAnonWriterPtrReady(t *testing.T) {
	ring, err := NewAnonRing(3, 3)
	require.NoError(t, err)
	w := ring.Writer()
	rc := ring.Reader()

	row := w.Ptr()
	assert.Len(t, row, 3)
	copy(row, "abc")
	w.Ready()

	dst := make([]byte, 3)
	n, err := rc.GetInto(dst)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(dst[:n]))
}

func TestWriterPtrVisibleToReaderOneLapBehind(t *testing.T) {
	ring := newTestRing(t, 2)
	w := ring.Writer()
	rc := ring.Reader()
	putAll(t, w, 1, 2)

	// 回绕后写位置上是最旧的数据，Ready 之前的填充对落后一圈的读游标可见
	*w.Ptr() = 99
	v, err := rc.Get()
	require.NoError(t, err)
	assert.Equal(t, 99, v)

	w.Ready()
	v, err = rc.Get()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}
