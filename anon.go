/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

import (
	"bytes"
	"unsafe"
)

// AnonBuffer 匿名存储，内容在运行时决定：rows 行，每行 stride 字节
// 容量不要求是2^n，因此通过取余运算回绕
// 与 Buffer 一样不做任何同步
type AnonBuffer struct {
	pos    position
	stride int
	ring   []byte
}

// NewAnonBuffer 创建 stride*rows 字节的存储并清零，stride 与 rows 均不能为0
func NewAnonBuffer(stride, rows int) (*AnonBuffer, error) {
	if stride <= 0 || rows <= 0 {
		return nil, WrapFatal(ErrStride, "AnonBuffer", "NewAnonBuffer", "size check")
	}
	return &AnonBuffer{
		pos:    newModPosition(rows),
		stride: stride,
		ring:   make([]byte, stride*rows),
	}, nil
}

// Write 将 p 复制到当前行并推进，返回写入的行号
// p 为空或超过 stride 时返回错误，不做任何修改；行内 len(p) 之后的字节保持原样
func (b *AnonBuffer) Write(p []byte) (int, error) {
	if err := b.check(p, "Write"); err != nil {
		return NoIndex, err
	}
	i := b.pos.at
	copy(b.row(i), p)
	b.pos.advance()
	return i, nil
}

// At 返回当前可写行，不推进
// 用于先占位、之后由外部（例如网络读取）填充，完成后调用 Next
func (b *AnonBuffer) At() []byte {
	return b.row(b.pos.at)
}

// Next 推进写位置，返回刚刚提交的行
func (b *AnonBuffer) Next() []byte {
	return b.row(b.pos.advance())
}

// Last 最近一次提交的行，从未写入时返回 false
func (b *AnonBuffer) Last() ([]byte, bool) {
	i := b.pos.last()
	if i == NoIndex {
		return nil, false
	}
	return b.row(i), true
}

// Index 按行号访问，越界返回 ErrOutOfRange
func (b *AnonBuffer) Index(i int) ([]byte, error) {
	if !b.pos.valid(i) {
		return nil, WrapInvalid(ErrOutOfRange, "AnonBuffer", "Index", "bounds check")
	}
	return b.row(i), nil
}

// Find 在 [lo, hi) 行中查找，eq 为空时判断行是否以 p 开头
func (b *AnonBuffer) Find(p []byte, eq func(row, p []byte) bool, lo, hi int) int {
	if eq == nil {
		eq = b.equal
	}
	return scan(span{lo, hi}.clamp(b.pos.capacity), func(i int) bool {
		return eq(b.row(i), p)
	})
}

func (b *AnonBuffer) Capacity() int {
	return b.pos.capacity
}

func (b *AnonBuffer) Stride() int {
	return b.stride
}

// Storage 存储总字节数
func (b *AnonBuffer) Storage() int {
	return len(b.ring)
}

func (b *AnonBuffer) WriteAt() int {
	return b.pos.at
}

func (b *AnonBuffer) HasData() bool {
	return b.pos.written
}

func (b *AnonBuffer) check(p []byte, op string) error {
	if p == nil {
		return WrapInvalid(ErrNilPayload, "AnonBuffer", op, "payload check")
	}
	if len(p) > b.stride {
		return WrapInvalid(ErrPayloadTooLong, "AnonBuffer", op, "payload check")
	}
	return nil
}

// row 第 i 行，容量限制为 stride，防止 append 越界写到下一行
func (b *AnonBuffer) row(i int) []byte {
	off := i * b.stride
	return b.ring[off : off+b.stride : off+b.stride]
}

func (b *AnonBuffer) cursor() *position {
	return &b.pos
}

func (b *AnonBuffer) slot(i int) []byte {
	return b.row(i)
}

func (b *AnonBuffer) load(i int) []byte {
	return b.row(i)
}

// loadInto 将第 i 行复制到 dst，返回的切片不再引用存储
func (b *AnonBuffer) loadInto(i int, dst []byte) []byte {
	copy(dst, b.row(i))
	return dst
}

func (b *AnonBuffer) scratch() []byte {
	return make([]byte, b.stride)
}

func (b *AnonBuffer) put(p []byte) (int, error) {
	return b.Write(p)
}

func (b *AnonBuffer) equal(row, p []byte) bool {
	return bytes.HasPrefix(row, p)
}

// Bytes 返回对象 v 的字节视图（浅拷贝语义），用于写入 AnonBuffer
// T 不能包含指针，否则写入字节后 GC 无法追踪
func Bytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// Decode 将一行数据复制回对象 v，行长度不足时返回 ErrPayloadTooLong
func Decode[T any](row []byte, v *T) error {
	dst := Bytes(v)
	if len(row) < len(dst) {
		return WrapInvalid(ErrPayloadTooLong, "AnonBuffer", "Decode", "size check")
	}
	copy(dst, row)
	return nil
}
