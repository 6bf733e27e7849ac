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


package mem

import (
	"context"
	"sync"

	"github.com/go-logr/logr"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/logger/stdr"
)

var defaultLogger = stdr.NewStdr("mem_eventbus")

// MemoryEventBus 进程内事件总线，事件在业务事务提交后写入通道，由后台协程消费
type MemoryEventBus struct {
	ch     chan *ddd.DomainEvent
	cb     ddd.DomainEventHandler
	logger logr.Logger

	once sync.Once
	wg   sync.WaitGroup
}

func NewEventBus(capacity int) *MemoryEventBus {
	return &MemoryEventBus{
		ch:     make(chan *ddd.DomainEvent, capacity),
		logger: defaultLogger,
	}
}

func (e *MemoryEventBus) Dispatch(ctx context.Context, evts ...*ddd.DomainEvent) error {
	for _, evt := range evts {
		select {
		case e.ch <- evt:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *MemoryEventBus) RegisterEventHandler(cb ddd.DomainEventHandler) {
	e.cb = cb
}

// Start 启动消费协程，ctx 结束后退出
func (e *MemoryEventBus) Start(ctx context.Context) {
	run := func() {
		defer e.wg.Done()
		for {
			select {
			case evt := <-e.ch:
				if err := e.cb(ctx, evt); err != nil {
					e.logger.Error(err, "handle event failed", "type", evt.Type, "id", evt.ID)
				}
			case <-ctx.Done():
				return
			}
		}
	}
	// 确保只启动一次
	e.once.Do(func() {
		e.wg.Add(1)
		go run()
	})
}

// Wait 等待消费协程退出
func (e *MemoryEventBus) Wait() {
	e.wg.Wait()
}
