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

package warehouse

import (
	ddd "github.com/bytedance/dddwarehouse"
)

const EventStockChanged ddd.EventType = "warehouse_stock_changed"
const EventOrderConfirmed ddd.EventType = "warehouse_order_confirmed"
const EventOrderStatusChanged ddd.EventType = "warehouse_order_status_changed"
const EventOrderClosed ddd.EventType = "warehouse_order_closed"
const EventOrderClosureDue ddd.EventType = "warehouse_order_closure_due"

type StockDirection string

const (
	StockIn  StockDirection = "IN"
	StockOut StockDirection = "OUT"
)

// StockChangedEvent 库区库存发生变化
type StockChangedEvent struct {
	SectorID  string
	ProductID string
	Quantity  int
	Direction StockDirection
}

func NewStockChangedEvent(sectorID, productID string, quantity int, direction StockDirection) *StockChangedEvent {
	return &StockChangedEvent{
		SectorID:  sectorID,
		ProductID: productID,
		Quantity:  quantity,
		Direction: direction,
	}
}

func (e StockChangedEvent) GetType() ddd.EventType {
	return EventStockChanged
}

func (e StockChangedEvent) GetSender() string {
	return e.SectorID
}

type OrderLine struct {
	ProductID string
	Quantity  int
}

type OrderConfirmedEvent struct {
	OrderID  string
	ClientID string
	Lines    []OrderLine
}

func NewOrderConfirmedEvent(orderID, clientID string, lines []OrderLine) *OrderConfirmedEvent {
	return &OrderConfirmedEvent{
		OrderID:  orderID,
		ClientID: clientID,
		Lines:    lines,
	}
}

func (e OrderConfirmedEvent) GetType() ddd.EventType {
	return EventOrderConfirmed
}

func (e OrderConfirmedEvent) GetSender() string {
	return e.OrderID
}

type OrderStatusChangedEvent struct {
	OrderID string
	From    string
	To      string
}

func NewOrderStatusChangedEvent(orderID, from, to string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{OrderID: orderID, From: from, To: to}
}

func (e OrderStatusChangedEvent) GetType() ddd.EventType {
	return EventOrderStatusChanged
}

func (e OrderStatusChangedEvent) GetSender() string {
	return e.OrderID
}

type OrderClosedEvent struct {
	OrderID string
	From    string
}

func NewOrderClosedEvent(orderID, from string) *OrderClosedEvent {
	return &OrderClosedEvent{OrderID: orderID, From: from}
}

func (e OrderClosedEvent) GetType() ddd.EventType {
	return EventOrderClosed
}

func (e OrderClosedEvent) GetSender() string {
	return e.OrderID
}

// OrderClosureDueEvent 延时事件，到期后自动关闭订单
type OrderClosureDueEvent struct {
	OrderID string
}

func NewOrderClosureDueEvent(orderID string) *OrderClosureDueEvent {
	return &OrderClosureDueEvent{OrderID: orderID}
}

func (e OrderClosureDueEvent) GetType() ddd.EventType {
	return EventOrderClosureDue
}

func (e OrderClosureDueEvent) GetSender() string {
	return e.OrderID
}
