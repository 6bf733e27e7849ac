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


package sql

import (
	"time"

	ddd "github.com/bytedance/dddwarehouse"
)

type EventPO struct {
	ID             int64            `gorm:"primaryKey;autoIncrement"`
	EventID        string           `gorm:"column:event_id;type:varchar(64);index"`
	EventType      string           `gorm:"column:event_type;type:varchar(64)"`
	Event          *ddd.DomainEvent `gorm:"serializer:json;type:text"`
	EventCreatedAt time.Time        `gorm:"index"` // 事件的创建时间
	CreatedAt      time.Time        `gorm:"index"` // 记录创建时间
}

func (o *EventPO) TableName() string {
	return "warehouse_domain_event"
}

type RetryInfo struct {
	ID         int64
	RetryCount int       // 第 RetryCount 次重试，0 表示初始状态
	RetryTime  time.Time // 重试时间
}

type ServicePO struct {
	Name      string       `gorm:"primaryKey;type:varchar(64)"`
	Retry     []*RetryInfo `gorm:"serializer:json;type:text"` // 重试信息
	Failed    []*RetryInfo `gorm:"serializer:json;type:text"` // 失败信息，相当于死信队列，不会被清理
	Offset    int64        `gorm:"column:offset"`             // 消费位置，等于最后一次消费的事件id
	Version   int64        `gorm:"column:version"`            // 乐观锁版本号
	CreatedAt time.Time    `gorm:"index"`
	UpdatedAt time.Time    `gorm:"index"`
}

func (o *ServicePO) TableName() string {
	return "warehouse_eventbus_service"
}

func eventPersist(event *ddd.DomainEvent) *EventPO {
	return &EventPO{
		EventID:        event.ID,
		EventType:      string(event.Type),
		Event:          event,
		EventCreatedAt: event.CreatedAt,
	}
}
