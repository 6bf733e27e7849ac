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
	"reflect"
	"sync"
	"time"

	"github.com/rs/xid"
)

var ErrNoEventBusFound = fmt.Errorf("no eventbus found")

type EventType string

type SendType string

const (
	SendTypeNormal SendType = "normal" // 普通事件
	SendTypeDelay  SendType = "delay"  // 延时发送，经由 ITimer 在指定时间投递
)

type EventOption struct {
	SendType SendType
}

type EventOpt func(opt *EventOption)

func WithSendType(t SendType) EventOpt {
	return func(opt *EventOption) {
		opt.SendType = t
	}
}

type EventHandler interface{}

type DomainEventHandler func(ctx context.Context, evt *DomainEvent) error

type eventHandler struct {
	f         reflect.Value // the actual callback function
	eventType reflect.Type  // 存储实际事件类型
}

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errType = reflect.TypeOf((*error)(nil)).Elem()
var domainEventType = reflect.TypeOf(DomainEvent{})

// EventRouter 按事件类型将 DomainEvent 分发给注册的处理函数
type EventRouter struct {
	mu       sync.Mutex
	handlers map[EventType][]*eventHandler
}

func NewEventRouter() *EventRouter {
	return &EventRouter{handlers: map[EventType][]*eventHandler{}}
}

// Register 注册事件处理函数，handler 形如 func(ctx context.Context, evt *SomeEvent) error
func (r *EventRouter) Register(t EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	handlerType := reflect.TypeOf(handler)
	if handlerType.Kind() != reflect.Func {
		panic("handler must type of reflect.Func")
	}
	if handlerType.NumIn() != 2 || !handlerType.In(0).Implements(ctxType) {
		panic("handler must has 2 args and the first must be type of context.Context")
	}
	if handlerType.NumOut() != 1 || !handlerType.Out(0).Implements(errType) {
		panic("handler must has error as output")
	}
	argType := handlerType.In(1)
	if argType.Kind() != reflect.Ptr {
		panic("event type must be pointer")
	}
	r.handlers[t] = append(r.handlers[t], &eventHandler{
		f:         reflect.ValueOf(handler),
		eventType: argType.Elem(),
	})
}

func (r *EventRouter) Has(t EventType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.handlers[t]
	return ok
}

// OnEvent 满足 DomainEventHandler 签名，可直接注册到 IEventBus
func (r *EventRouter) OnEvent(ctx context.Context, evt *DomainEvent) error {
	r.mu.Lock()
	handlers := r.handlers[evt.Type]
	r.mu.Unlock()

	for _, h := range handlers {
		var bizEvt reflect.Value
		if h.eventType == domainEventType {
			bizEvt = reflect.ValueOf(evt)
		} else {
			bizEvt = reflect.New(h.eventType)
			if err := json.Unmarshal(evt.Payload, bizEvt.Interface()); err != nil {
				return err
			}
		}

		outs := h.f.Call([]reflect.Value{reflect.ValueOf(ctx), bizEvt})
		if !outs[0].IsNil() {
			return outs[0].Interface().(error)
		}
	}

	return nil
}

type IEvent interface {
	GetType() EventType // 事件类型
	GetSender() string  // 发送者id
}

type DomainEvent struct {
	ID        string
	Type      EventType
	SendType  SendType
	Sender    string // 事件发出实体 ID
	Payload   []byte
	CreatedAt time.Time
}

func (d *DomainEvent) GetType() EventType {
	return d.Type
}

func (d *DomainEvent) GetSender() string {
	return d.Sender
}

func NewDomainEvent(event IEvent, opts ...EventOpt) *DomainEvent {
	opt := &EventOption{
		SendType: SendTypeNormal,
	}
	for _, o := range opts {
		o(opt)
	}
	bs, err := json.Marshal(event)
	if err != nil {
		panic(fmt.Sprintf("event marshal failed, err=%s", err))
	}
	return &DomainEvent{
		ID:        xid.New().String(),
		Type:      event.GetType(),
		SendType:  opt.SendType,
		Sender:    event.GetSender(),
		Payload:   bs,
		CreatedAt: time.Now(),
	}
}

type IEventBus interface {
	// Dispatch 发送领域事件到 EventBus，对于每个事件，EventBus 必须要至少保证 at least once 送达
	// 非事务型 EventBus 在业务事务提交成功后才会被调用
	Dispatch(ctx context.Context, evt ...*DomainEvent) error

	// RegisterEventHandler 注册事件回调，IEventBus 的实现必须保证收到事件同步调用该回调
	RegisterEventHandler(cb DomainEventHandler)
}

// ITransactionEventBus 事件与业务数据写入同一个事务（outbox），回滚时事件一并丢弃
type ITransactionEventBus interface {
	IEventBus

	// DispatchTx 在 ctx 携带的事务内写入事件
	DispatchTx(ctx context.Context, evt ...*DomainEvent) error
}

type noEventBus struct {
}

func (d *noEventBus) Dispatch(ctx context.Context, evt ...*DomainEvent) error {
	return ErrNoEventBusFound
}

func (d *noEventBus) RegisterEventHandler(cb DomainEventHandler) {
}
