/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

// Ring 类型化的 Lappable，槽位为 *T，读写的值为 T
type Ring[T any] struct {
	*Lappable[*T, T]
}

// NewRing 创建容量为 capacity 的 Ring，capacity 必须是2的指数倍
func NewRing[T any](capacity int, opts ...Option) (*Ring[T], error) {
	buf, err := NewBuffer[T](capacity)
	if err != nil {
		return nil, err
	}
	l, err := newLappable[*T, T](buf, applyOptions(opts...))
	if err != nil {
		return nil, err
	}
	return &Ring[T]{Lappable: l}, nil
}

// AnonRing 匿名的 Lappable，每个槽位为 stride 字节的一行
type AnonRing struct {
	*Lappable[[]byte, []byte]
	buf *AnonBuffer
}

// NewAnonRing 创建 rows 行、每行 stride 字节的 AnonRing，二者都不能为0
func NewAnonRing(stride, rows int, opts ...Option) (*AnonRing, error) {
	buf, err := NewAnonBuffer(stride, rows)
	if err != nil {
		return nil, err
	}
	l, err := newLappable[[]byte, []byte](buf, applyOptions(opts...))
	if err != nil {
		return nil, err
	}
	return &AnonRing{Lappable: l, buf: buf}, nil
}

func (r *AnonRing) Stride() int {
	return r.buf.Stride()
}

// Reader 创建从头开始读取的 AnonReader
func (r *AnonRing) Reader() *AnonReader {
	return &AnonReader{ReadCursor: r.Lappable.Reader()}
}

// ReaderFromNow 创建只读取之后写入数据的 AnonReader
func (r *AnonRing) ReaderFromNow() *AnonReader {
	return &AnonReader{ReadCursor: r.Lappable.ReaderFromNow()}
}

// AnonReader Get/Peek 返回读游标自己的缓冲（stride 字节），下一次读取时被复用；
// 需要长期保留数据时使用 GetInto/PeekInto 复制到调用方的缓冲
type AnonReader struct {
	*ReadCursor[[]byte, []byte]
}

// GetInto 将当前行复制到 dst 并推进，返回复制的字节数
func (r *AnonReader) GetInto(dst []byte) (int, error) {
	n := 0
	err := r.GetFunc(func(row []byte) {
		n = copy(dst, row)
	})
	return n, err
}

// PeekInto 将当前行复制到 dst，不推进
func (r *AnonReader) PeekInto(dst []byte) (int, error) {
	n := 0
	err := r.PeekFunc(func(row []byte) {
		n = copy(dst, row)
	})
	return n, err
}
