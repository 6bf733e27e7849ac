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
	"errors"
	"fmt"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

// placeStock 把 delivery 中的 amount 放入库区，容量不足或数量非法时返回 false 且不做任何修改
// delivery 的扣减在事务提交后生效，调用方需要在修改前 Attach sector
func placeStock(ctx context.Context, d *Deps, repo *ddd.Repository, sector *domain.InventorySector,
	delivery *domain.ProductWithQuantity, amount int) (bool, error) {
	log := d.logger().WithValues("sectorID", sector.ID, "code", delivery.Product.Code, "quantity", amount)
	if !sector.CanAccommodate(amount) {
		log.Info("sector has no place for that amount", "held", sector.TotalQuantity(), "capacity", sector.Capacity)
		return false, nil
	}
	pending := *delivery
	if !pending.DecreaseAmountBy(amount) {
		log.Info("wrong amount to place", "remaining", delivery.Quantity)
		return false, nil
	}

	product, err := d.Products.FindByCode(ctx, delivery.Product.Code)
	if errors.Is(err, domain.ErrNotFound) {
		product = &domain.Product{
			ID:    delivery.Product.ID,
			Code:  delivery.Product.Code,
			Name:  delivery.Product.Name,
			Price: delivery.Product.Price,
		}
		repo.Add(product)
	} else if err != nil {
		return false, err
	}

	if err := sector.AddAmountOfProduct(domain.AmountOfProduct{ProductID: product.ID, Quantity: amount}); err != nil {
		return false, err
	}
	repo.OnCommitted(func(ctx context.Context) {
		delivery.DecreaseAmountBy(amount)
		d.Metrics.Stock(string(event.StockIn), amount)
		log.Info("product placed", "productID", product.ID)
	})
	return true, nil
}

// AddStockCommand 入库，对应 AddProductWithQuantity
type AddStockCommand struct {
	ddd.Command

	deps     *Deps
	delivery *domain.ProductWithQuantity
	amount   int
	sectorID string
}

func NewAddStockCommand(deps *Deps, delivery *domain.ProductWithQuantity, amount int, sectorID string) *AddStockCommand {
	return &AddStockCommand{deps: deps, delivery: delivery, amount: amount, sectorID: sectorID}
}

func (c *AddStockCommand) Init(ctx context.Context) ([]string, error) {
	if c.delivery == nil || c.delivery.Product == nil || c.delivery.Product.Code == "" {
		return nil, fmt.Errorf("delivery without product code: %w", domain.ErrInvalidArgument)
	}
	return []string{SectorLockKey(c.sectorID), ProductLockKey(c.delivery.Product.Code)}, nil
}

func (c *AddStockCommand) Main(ctx context.Context, repo *ddd.Repository) error {
	sector, err := c.deps.Sectors.FindByID(ctx, c.sectorID)
	if err != nil {
		return err
	}
	repo.Attach(sector)
	ok, err := placeStock(ctx, c.deps, repo, sector, c.delivery, c.amount)
	if err != nil || !ok {
		repo.Output(false)
		return err
	}
	repo.Output(true)
	return nil
}

// RemoveStockCommand 出库，库存不足时输出 false，不修改库存
type RemoveStockCommand struct {
	ddd.Command

	deps     *Deps
	amount   domain.AmountOfProduct
	sectorID string
}

func NewRemoveStockCommand(deps *Deps, amount domain.AmountOfProduct, sectorID string) *RemoveStockCommand {
	return &RemoveStockCommand{deps: deps, amount: amount, sectorID: sectorID}
}

func (c *RemoveStockCommand) Init(ctx context.Context) ([]string, error) {
	if c.amount.ProductID == "" || c.amount.Quantity <= 0 {
		return nil, fmt.Errorf("remove %d of %q: %w", c.amount.Quantity, c.amount.ProductID, domain.ErrInvalidArgument)
	}
	return []string{SectorLockKey(c.sectorID)}, nil
}

func (c *RemoveStockCommand) Main(ctx context.Context, repo *ddd.Repository) error {
	sector, err := c.deps.Sectors.FindByID(ctx, c.sectorID)
	if err != nil {
		return err
	}
	log := c.deps.logger().WithValues("sectorID", sector.ID, "productID", c.amount.ProductID, "quantity", c.amount.Quantity)
	repo.Attach(sector)
	if err := sector.RemoveAmountOfProduct(c.amount); err != nil {
		if errors.Is(err, domain.ErrQuantityUnavailable) {
			log.Info("not enough stock to remove", "held", sector.QuantityOf(c.amount.ProductID))
			repo.Output(false)
			return nil
		}
		return err
	}
	repo.OnCommitted(func(ctx context.Context) {
		c.deps.Metrics.Stock(string(event.StockOut), c.amount.Quantity)
		log.Info("product removed")
	})
	repo.Output(true)
	return nil
}
