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

package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

// AddProductToCartCommand 购物车不落库，需以 WithoutTransaction 执行
type AddProductToCartCommand struct {
	ddd.Command

	deps      *Deps
	clientID  string
	productID string
	quantity  int
}

func NewAddProductToCartCommand(deps *Deps, clientID, productID string, quantity int) *AddProductToCartCommand {
	return &AddProductToCartCommand{deps: deps, clientID: clientID, productID: productID, quantity: quantity}
}

func (c *AddProductToCartCommand) Init(ctx context.Context) ([]string, error) {
	return []string{CartLockKey(c.clientID)}, nil
}

func (c *AddProductToCartCommand) Main(ctx context.Context, repo *ddd.Repository) error {
	if _, err := c.deps.Clients.FindByID(ctx, c.clientID); err != nil {
		return err
	}
	if _, err := c.deps.Products.FindByID(ctx, c.productID); err != nil {
		return err
	}
	if c.quantity <= 0 {
		return fmt.Errorf("quantity %d must be positive: %w", c.quantity, domain.ErrInvalidArgument)
	}

	now := c.deps.now()
	cart, ok, err := c.deps.Carts.Get(ctx, c.clientID)
	if err != nil {
		return err
	}
	if !ok {
		cart = domain.NewCart(c.clientID, now)
		if cart.OrderID, err = repo.NewID(); err != nil {
			return err
		}
	}
	if err := cart.AddLine(c.productID, c.quantity, now); err != nil {
		return err
	}
	prices, err := loadPrices(ctx, c.deps, cart.Lines)
	if err != nil {
		return err
	}
	if err := cart.RecalculateTotalPrice(prices); err != nil {
		return err
	}
	if err := c.deps.Carts.Put(ctx, cart); err != nil {
		return err
	}
	repo.Output(cart)
	return nil
}

// loadPrices 读取订单行涉及商品的当前价格
func loadPrices(ctx context.Context, d *Deps, lines []domain.AmountOfProduct) (map[string]decimal.Decimal, error) {
	products, err := d.Products.FindByIDs(ctx, domain.ProductIDs(lines))
	if err != nil {
		return nil, err
	}
	prices := make(map[string]decimal.Decimal, len(products))
	for id, p := range products {
		prices[id] = p.Price
	}
	return prices, nil
}
