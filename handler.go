/*
 * Copyright (C) THL A29 Limited, a Tencent company. All rights reserved.
 *
 * SPDX-License-Identifier: Apache-2.0
 *
 */

package lapring

// EventHandler 事件处理器接口
// Follower 中唯一需要用户实现的接口，该接口描述读取到数据时该如何处理
// 使用泛型，通过编译阶段确定事件类型，提高性能
type EventHandler[V any] interface {
	// OnEvent 用户侧实现，事件处理方法
	// byte 行的 v 是 Follower 读游标的缓冲，OnEvent 返回后会被下一次读取复用，需要保留时自行复制
	OnEvent(v V)
}

// LapHandler 可选接口，EventHandler 同时实现它时，被套圈会回调 OnLapped
// oldest 为读游标重新定位后的位置
type LapHandler interface {
	OnLapped(oldest int)
}

// HandlerFunc 函数形式的 EventHandler
type HandlerFunc[V any] func(v V)

func (f HandlerFunc[V]) OnEvent(v V) {
	f(v)
}
