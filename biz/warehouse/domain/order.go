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

package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	ddd "github.com/bytedance/dddwarehouse"
	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

type SaleOrder struct {
	ddd.BaseEntity

	ID         string
	ClientID   string
	CreatedAt  time.Time
	Lines      []AmountOfProduct
	TotalPrice decimal.Decimal
	Status     OrderStatus
}

func (o *SaleOrder) SetID(id string) {
	o.ID = id
}

func (o *SaleOrder) GetID() string {
	return o.ID
}

// RecalculateTotalPrice 总价由订单行和当前价格决定，订单行变化后需要重新计算
func (o *SaleOrder) RecalculateTotalPrice(prices map[string]decimal.Decimal) error {
	total, err := TotalPrice(o.Lines, prices)
	if err != nil {
		return err
	}
	if !o.TotalPrice.Equal(total) {
		o.TotalPrice = total
		o.Dirty()
	}
	return nil
}

// Confirmed 订单持久化分配 ID 之后调用
func (o *SaleOrder) Confirmed() {
	lines := make([]event.OrderLine, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = event.OrderLine{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	o.AddEvent(event.NewOrderConfirmedEvent(o.ID, o.ClientID, lines))
}

func (o *SaleOrder) transit(action OrderAction) bool {
	to, ok := Transition(o.Status, action)
	if !ok {
		return false
	}
	from := o.Status
	o.Status = to
	o.Dirty()
	if action == ActionClose {
		o.AddEvent(event.NewOrderClosedEvent(o.ID, string(from)))
	} else {
		o.AddEvent(event.NewOrderStatusChangedEvent(o.ID, string(from), string(to)))
	}
	return true
}

func (o *SaleOrder) PayOrder() bool {
	return o.transit(ActionPay)
}

func (o *SaleOrder) SendOrder() bool {
	return o.transit(ActionSend)
}

func (o *SaleOrder) CloseOrder() bool {
	return o.transit(ActionClose)
}

func (o *SaleOrder) Apply(action OrderAction) (bool, error) {
	switch action {
	case ActionPay, ActionSend, ActionClose:
		return o.transit(action), nil
	}
	return false, fmt.Errorf("unknown order action %q: %w", action, ErrInvalidArgument)
}

// Cart 客户确认前的临时订单，每个客户最多一个
// OrderID 在购物车创建时分配，确认后沿用为订单 ID
type Cart struct {
	ClientID   string            `json:"clientID"`
	OrderID    string            `json:"orderID,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
	Lines      []AmountOfProduct `json:"lines"`
	TotalPrice decimal.Decimal   `json:"totalPrice"`
}

func NewCart(clientID string, now time.Time) *Cart {
	return &Cart{
		ClientID:   clientID,
		CreatedAt:  now,
		UpdatedAt:  now,
		Lines:      []AmountOfProduct{},
		TotalPrice: decimal.Zero,
	}
}

// AddLine 同一商品重复添加时追加新行，不合并
func (c *Cart) AddLine(productID string, quantity int, now time.Time) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity %d must be positive: %w", quantity, ErrInvalidArgument)
	}
	line, err := NewAmountOfProduct(productID, quantity)
	if err != nil {
		return err
	}
	c.Lines = append(c.Lines, line)
	c.UpdatedAt = now
	return nil
}

func (c *Cart) RecalculateTotalPrice(prices map[string]decimal.Decimal) error {
	total, err := TotalPrice(c.Lines, prices)
	if err != nil {
		return err
	}
	c.TotalPrice = total
	return nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Lines = append([]AmountOfProduct{}, c.Lines...)
	return &cp
}

// ToOrder 转换为待持久化的订单，状态为 NEW
func (c *Cart) ToOrder(now time.Time) *SaleOrder {
	return &SaleOrder{
		ID:         c.OrderID,
		ClientID:   c.ClientID,
		CreatedAt:  now,
		Lines:      append([]AmountOfProduct{}, c.Lines...),
		TotalPrice: c.TotalPrice,
		Status:     StatusNew,
	}
}

// OrderedProduct 订单确认后按行生成的统计记录
type OrderedProduct struct {
	ddd.BaseEntity

	ID        string
	OrderID   string
	ProductID string
	Quantity  int
}

func (p *OrderedProduct) SetID(id string) {
	p.ID = id
}

func (p *OrderedProduct) GetID() string {
	return p.ID
}
