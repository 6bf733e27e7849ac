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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

func TestNewInventorySector(t *testing.T) {
	s, err := NewInventorySector(" main ", 100)
	assert.NoError(t, err)
	assert.Equal(t, "MAIN", s.Name)
	assert.Equal(t, 100, s.Capacity)

	_, err = NewInventorySector("", 10)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = NewInventorySector("a", -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSectorAddAndRemove(t *testing.T) {
	s, _ := NewInventorySector("main", 100)
	s.ID = "s1"

	assert.True(t, s.CanAccommodate(100))
	assert.False(t, s.CanAccommodate(101))
	assert.False(t, s.CanAccommodate(-1))

	assert.NoError(t, s.AddAmountOfProduct(AmountOfProduct{ProductID: "p1", Quantity: 50}))
	assert.NoError(t, s.AddAmountOfProduct(AmountOfProduct{ProductID: "p1", Quantity: 10}))
	assert.NoError(t, s.AddAmountOfProduct(AmountOfProduct{ProductID: "p2", Quantity: 40}))
	assert.Equal(t, 60, s.QuantityOf("p1"))
	assert.Equal(t, 100, s.TotalQuantity())

	err := s.AddAmountOfProduct(AmountOfProduct{ProductID: "p3", Quantity: 1})
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 0, s.QuantityOf("p3"))

	err = s.RemoveAmountOfProduct(AmountOfProduct{ProductID: "p2", Quantity: 41})
	assert.ErrorIs(t, err, ErrQuantityUnavailable)
	assert.Equal(t, 40, s.QuantityOf("p2"))

	assert.NoError(t, s.RemoveAmountOfProduct(AmountOfProduct{ProductID: "p2", Quantity: 40}))
	_, ok := s.Stock["p2"]
	assert.False(t, ok)
	assert.Equal(t, []AmountOfProduct{{ProductID: "p1", Quantity: 60}}, s.Amounts())

	evts := s.GetEvents()
	assert.Len(t, evts, 4)
	assert.Equal(t, event.EventStockChanged, evts[3].Type)
	assert.Equal(t, "s1", evts[3].Sender)
	assert.True(t, s.IsDirty())
}

func TestSectorInvalidAmount(t *testing.T) {
	s, _ := NewInventorySector("main", 10)
	assert.True(t, errors.Is(s.AddAmountOfProduct(AmountOfProduct{ProductID: "p1"}), ErrInvalidArgument))
	assert.True(t, errors.Is(s.RemoveAmountOfProduct(AmountOfProduct{Quantity: 1}), ErrInvalidArgument))
	assert.Empty(t, s.GetEvents())
}

func TestSectorResize(t *testing.T) {
	s, _ := NewInventorySector("main", 10)
	assert.NoError(t, s.AddAmountOfProduct(AmountOfProduct{ProductID: "p1", Quantity: 8}))
	assert.ErrorIs(t, s.Resize(7), ErrCapacityExceeded)
	assert.NoError(t, s.Resize(8))
	assert.False(t, s.CanAccommodate(1))
}

func TestProductWithQuantity(t *testing.T) {
	p := NewProductWithQuantity(&Product{Code: "P1"}, 5)
	assert.False(t, p.DecreaseAmountBy(6))
	assert.False(t, p.DecreaseAmountBy(0))
	assert.Equal(t, 5, p.Quantity)
	assert.True(t, p.DecreaseAmountBy(5))
	assert.Equal(t, 0, p.Quantity)
	assert.False(t, p.DecreaseAmountBy(1))
}
