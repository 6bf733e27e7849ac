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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from   OrderStatus
		action OrderAction
		to     OrderStatus
		ok     bool
	}{
		{StatusNew, ActionPay, StatusPaid, true},
		{StatusNew, ActionSend, StatusNew, false},
		{StatusNew, ActionClose, StatusClosed, true},
		{StatusPaid, ActionPay, StatusPaid, false},
		{StatusPaid, ActionSend, StatusSent, true},
		{StatusPaid, ActionClose, StatusClosed, true},
		{StatusSent, ActionPay, StatusSent, false},
		{StatusSent, ActionSend, StatusSent, false},
		{StatusSent, ActionClose, StatusClosed, true},
		{StatusClosed, ActionPay, StatusClosed, false},
		{StatusClosed, ActionSend, StatusClosed, false},
		{StatusClosed, ActionClose, StatusClosed, false},
	}
	for _, c := range cases {
		to, ok := Transition(c.from, c.action)
		assert.Equal(t, c.ok, ok, "%s --%s-->", c.from, c.action)
		assert.Equal(t, c.to, to, "%s --%s-->", c.from, c.action)
	}
}

func TestOrderTransitions(t *testing.T) {
	o := &SaleOrder{ID: "o1", Status: StatusNew}
	assert.False(t, o.SendOrder())
	assert.Empty(t, o.GetEvents())

	assert.True(t, o.PayOrder())
	assert.True(t, o.SendOrder())
	assert.True(t, o.CloseOrder())
	assert.False(t, o.CloseOrder())
	assert.Equal(t, StatusClosed, o.Status)

	evts := o.GetEvents()
	assert.Len(t, evts, 3)
	assert.Equal(t, event.EventOrderStatusChanged, evts[0].Type)
	assert.Equal(t, event.EventOrderClosed, evts[2].Type)

	_, err := o.Apply("refund")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCartTotalPrice(t *testing.T) {
	now := time.Now()
	prices := map[string]decimal.Decimal{
		"p1": decimal.RequireFromString("2.50"),
		"p2": decimal.RequireFromString("10"),
	}
	c := NewCart("c1", now)
	assert.True(t, c.IsEmpty())

	assert.NoError(t, c.AddLine("p1", 3, now))
	assert.NoError(t, c.AddLine("p2", 1, now))
	assert.NoError(t, c.AddLine("p1", 2, now))
	assert.NoError(t, c.RecalculateTotalPrice(prices))
	assert.Len(t, c.Lines, 3)
	assert.True(t, decimal.RequireFromString("22.5").Equal(c.TotalPrice))

	assert.ErrorIs(t, c.AddLine("p1", 0, now), ErrInvalidArgument)
	assert.Len(t, c.Lines, 3)

	prices["p1"] = decimal.NewFromInt(1)
	assert.NoError(t, c.RecalculateTotalPrice(prices))
	assert.True(t, decimal.NewFromInt(15).Equal(c.TotalPrice))

	delete(prices, "p2")
	assert.ErrorIs(t, c.RecalculateTotalPrice(prices), ErrNotFound)
}

func TestCartToOrder(t *testing.T) {
	now := time.Now()
	c := NewCart("c1", now)
	_ = c.AddLine("p1", 3, now)
	o := c.ToOrder(now)
	assert.Equal(t, StatusNew, o.Status)
	assert.Equal(t, "c1", o.ClientID)

	o.Lines[0].Quantity = 100
	assert.Equal(t, 3, c.Lines[0].Quantity)

	o.ID = "o1"
	o.Confirmed()
	evts := o.GetEvents()
	assert.Len(t, evts, 1)
	assert.Equal(t, event.EventOrderConfirmed, evts[0].Type)
	assert.Equal(t, "o1", evts[0].Sender)
}

func TestProductIDs(t *testing.T) {
	lines := []AmountOfProduct{{"b", 1}, {"a", 1}, {"b", 2}}
	assert.Equal(t, []string{"b", "a"}, ProductIDs(lines))
}
