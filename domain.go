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

type IEntity interface {
	IDirty

	SetID(id string)
	GetID() string

	GetEvents() []*DomainEvent
	ClearEvents()
}

type IDirty interface {
	// Dirty 标记实体对象是否需要更新
	Dirty()
	// UnDirty 取消实体的更新标记
	UnDirty()
	// IsDirty 判断实体是否需要更新
	IsDirty() bool
}

// BaseEntity 实体的公共部分，聚合根内嵌该结构体即可实现 IEntity
type BaseEntity struct {
	id      string
	isDirty bool
	events  []*DomainEvent
}

func NewBase(id string) BaseEntity {
	return BaseEntity{id: id}
}

func (e *BaseEntity) SetID(id string) {
	e.id = id
}

func (e *BaseEntity) GetID() string {
	return e.id
}

func (e *BaseEntity) Dirty() {
	e.isDirty = true
}

func (e *BaseEntity) UnDirty() {
	e.isDirty = false
}

func (e *BaseEntity) IsDirty() bool {
	return e.isDirty
}

// AddEvent 记录领域事件，事件在 Stage 提交时统一发送
func (e *BaseEntity) AddEvent(evt IEvent, opts ...EventOpt) {
	e.events = append(e.events, NewDomainEvent(evt, opts...))
}

func (e *BaseEntity) GetEvents() []*DomainEvent {
	return e.events
}

func (e *BaseEntity) ClearEvents() {
	e.events = nil
}
