//
// Copyright 2023 Bytedance Ltd. and/or its affiliates
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package dddwarehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

var ErrNoEventTimerFound = fmt.Errorf("no event_timer found")

type TimerHandler func(ctx context.Context, key, cron string, data []byte) error

type ITimer interface {
	// RegisterTimerHandler 注册定时任务，定时到来时候调用该回调函数
	RegisterTimerHandler(cb TimerHandler)

	// RunCron 按照 cron 语法设置定时，并在定时到达后作为参数调用定时任务回调
	// key: 定时任务唯一标识，重复调用时不覆盖已有计时; cron: 定时配置; data: 透传数据，回调函数传入
	RunCron(ctx context.Context, key, cron string, data []byte) error

	// RunOnce 指定时间单次运行，ctx 中携带事务时与业务数据一起提交
	// key: 定时任务唯一标识，重复调用时不覆盖已有计时; t: 执行时间; data: 透传数据，回调函数传入
	RunOnce(ctx context.Context, key string, t time.Time, data []byte) error

	// Cancel 删除某个未执行的定时
	Cancel(ctx context.Context, key string) error
}

type noTimer struct {
}

func (d *noTimer) RunCron(ctx context.Context, key, cron string, data []byte) error {
	return ErrNoEventTimerFound
}

func (d *noTimer) RunOnce(ctx context.Context, key string, t time.Time, data []byte) error {
	return ErrNoEventTimerFound
}

func (d *noTimer) RegisterTimerHandler(cb TimerHandler) {
}

func (d *noTimer) Cancel(ctx context.Context, key string) error {
	return nil
}

// TimerEvent cron 定时到达时投递的事件，事件类型即定时任务的 key
type TimerEvent struct {
	Key     string
	Cron    string
	Payload []byte
}

func (e *TimerEvent) GetType() EventType {
	return EventType(e.Key)
}

func (e *TimerEvent) GetSender() string {
	return ""
}

// onTimer 单次定时的 data 为序列化的延时事件，按事件自身类型路由；cron 定时按 key 路由
func (e *Engine) onTimer(ctx context.Context, key, cron string, data []byte) error {
	if cron == "" && len(data) > 0 {
		evt := &DomainEvent{}
		if err := json.Unmarshal(data, evt); err != nil {
			return fmt.Errorf("decode delayed event of timer %s: %w", key, err)
		}
		return e.router.OnEvent(ctx, evt)
	}
	return e.router.OnEvent(ctx, NewDomainEvent(&TimerEvent{Key: key, Cron: cron, Payload: data}))
}
