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
	"sort"
	"strings"

	ddd "github.com/bytedance/dddwarehouse"
	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

// InventorySector 有容量上限的库区，库存按商品 ID 记录
type InventorySector struct {
	ddd.BaseEntity

	ID       string
	Name     string
	Capacity int
	Stock    map[string]*AmountOfProduct
}

func NormalizeSectorName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func NewInventorySector(name string, capacity int) (*InventorySector, error) {
	s := &InventorySector{Stock: map[string]*AmountOfProduct{}}
	if err := s.Rename(name); err != nil {
		return nil, err
	}
	if err := s.Resize(capacity); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *InventorySector) SetID(id string) {
	s.ID = id
}

func (s *InventorySector) GetID() string {
	return s.ID
}

func (s *InventorySector) Rename(name string) error {
	name = NormalizeSectorName(name)
	if name == "" {
		return fmt.Errorf("sector name is empty: %w", ErrInvalidArgument)
	}
	s.Name = name
	s.Dirty()
	return nil
}

// Resize 容量不能小于当前库存总量
func (s *InventorySector) Resize(capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("capacity %d is negative: %w", capacity, ErrInvalidArgument)
	}
	if total := s.TotalQuantity(); capacity < total {
		return fmt.Errorf("capacity %d below stock %d: %w", capacity, total, ErrCapacityExceeded)
	}
	s.Capacity = capacity
	s.Dirty()
	return nil
}

func (s *InventorySector) TotalQuantity() int {
	total := 0
	for _, a := range s.Stock {
		total += a.Quantity
	}
	return total
}

// CanAccommodate 只统计本库区当前库存，不考虑在途入库
func (s *InventorySector) CanAccommodate(n int) bool {
	return n >= 0 && s.TotalQuantity()+n <= s.Capacity
}

func (s *InventorySector) QuantityOf(productID string) int {
	if a, ok := s.Stock[productID]; ok {
		return a.Quantity
	}
	return 0
}

// Amounts 按商品 ID 排序的库存快照
func (s *InventorySector) Amounts() []AmountOfProduct {
	res := make([]AmountOfProduct, 0, len(s.Stock))
	for _, a := range s.Stock {
		res = append(res, *a)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].ProductID < res[j].ProductID
	})
	return res
}

func (s *InventorySector) AddAmountOfProduct(amount AmountOfProduct) error {
	if amount.ProductID == "" || amount.Quantity <= 0 {
		return fmt.Errorf("add %d of %q: %w", amount.Quantity, amount.ProductID, ErrInvalidArgument)
	}
	if !s.CanAccommodate(amount.Quantity) {
		return fmt.Errorf("sector %s holds %d/%d, can not add %d: %w",
			s.Name, s.TotalQuantity(), s.Capacity, amount.Quantity, ErrCapacityExceeded)
	}
	if s.Stock == nil {
		s.Stock = map[string]*AmountOfProduct{}
	}
	if a, ok := s.Stock[amount.ProductID]; ok {
		a.Quantity += amount.Quantity
	} else {
		s.Stock[amount.ProductID] = &AmountOfProduct{ProductID: amount.ProductID, Quantity: amount.Quantity}
	}
	s.Dirty()
	s.AddEvent(event.NewStockChangedEvent(s.ID, amount.ProductID, amount.Quantity, event.StockIn))
	return nil
}

// RemoveAmountOfProduct 库存不足时整体失败，不会扣成负数
func (s *InventorySector) RemoveAmountOfProduct(amount AmountOfProduct) error {
	if amount.ProductID == "" || amount.Quantity <= 0 {
		return fmt.Errorf("remove %d of %q: %w", amount.Quantity, amount.ProductID, ErrInvalidArgument)
	}
	held := s.QuantityOf(amount.ProductID)
	if held < amount.Quantity {
		return fmt.Errorf("sector %s holds %d of %s, need %d: %w",
			s.Name, held, amount.ProductID, amount.Quantity, ErrQuantityUnavailable)
	}
	if held == amount.Quantity {
		delete(s.Stock, amount.ProductID)
	} else {
		s.Stock[amount.ProductID].Quantity = held - amount.Quantity
	}
	s.Dirty()
	s.AddEvent(event.NewStockChangedEvent(s.ID, amount.ProductID, amount.Quantity, event.StockOut))
	return nil
}
