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

	"github.com/shopspring/decimal"
)

// AmountOfProduct 商品数量，既用于订单行也用于库存
type AmountOfProduct struct {
	ProductID string
	Quantity  int
}

func NewAmountOfProduct(productID string, quantity int) (AmountOfProduct, error) {
	if productID == "" {
		return AmountOfProduct{}, fmt.Errorf("product id is empty: %w", ErrInvalidArgument)
	}
	if quantity < 0 {
		return AmountOfProduct{}, fmt.Errorf("quantity %d is negative: %w", quantity, ErrInvalidArgument)
	}
	return AmountOfProduct{ProductID: productID, Quantity: quantity}, nil
}

// ProductWithQuantity 入库途中尚未上架的数量
type ProductWithQuantity struct {
	Product  *Product
	Quantity int
}

func NewProductWithQuantity(product *Product, quantity int) *ProductWithQuantity {
	return &ProductWithQuantity{Product: product, Quantity: quantity}
}

// DecreaseAmountBy 扣减剩余数量，数量不足或非正数时返回 false 且不做修改
func (p *ProductWithQuantity) DecreaseAmountBy(n int) bool {
	if n <= 0 || n > p.Quantity {
		return false
	}
	p.Quantity -= n
	return true
}

// TotalPrice 按当前商品价格计算 Σ(数量 × 单价)
func TotalPrice(lines []AmountOfProduct, prices map[string]decimal.Decimal) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range lines {
		price, ok := prices[line.ProductID]
		if !ok {
			return decimal.Zero, fmt.Errorf("price of product %s: %w", line.ProductID, ErrNotFound)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total, nil
}

// ProductIDs 去重后的商品 ID，保持首次出现的顺序
func ProductIDs(lines []AmountOfProduct) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}
