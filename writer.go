/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

// WriteCursor 写游标
// 写位置由 ring 维护，因此所有写游标共享同一个写位置：通过任何一个写入都会推进所有写游标。
// 多个写游标之间通过锁串行化，但彼此的先后顺序没有保证
type WriteCursor[S, V any] struct {
	ring *Lappable[S, V]
	err  error
}

// Ptr 返回当前写位置的槽位地址
// 与 Ready 配合实现延迟写入，例如先占位，网络数据到达后再填充；
// 若填充一直没有完成，该槽位保持旧数据，直到写位置再次到达，不存在回滚
// 注意 Ptr 与 Ready 之间槽位不受锁保护：写入方已回绕时，该槽位正是最旧的数据，
// 正好落后一圈的读游标会被判定为可读，可能读到填充了一半的内容；需要完整性时使用 Put
func (w *WriteCursor[S, V]) Ptr() S {
	l := w.ring
	w.err = nil
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st.slot(l.pos.at)
}

// Ready 提交 Ptr 返回的槽位，推进写位置，回绕到0时圈数加一
func (w *WriteCursor[S, V]) Ready() {
	l := w.ring
	w.err = nil
	l.mu.Lock()
	l.pos.advance()
	l.committedLocked()
	l.mu.Unlock()
	l.wake()
}

// Put 一次加锁完成占位、复制和提交，返回写入的下标
// 参数非法时（例如 AnonRing 的 payload 超过 stride）返回错误且不做任何修改
func (w *WriteCursor[S, V]) Put(v V) (int, error) {
	l := w.ring
	l.mu.Lock()
	i, err := l.st.put(v)
	if err != nil {
		l.mu.Unlock()
		w.err = err
		return NoIndex, err
	}
	l.committedLocked()
	l.mu.Unlock()
	w.err = nil
	l.wake()
	return i, nil
}

// Err 最近一次写入的错误
func (w *WriteCursor[S, V]) Err() error {
	return w.err
}
