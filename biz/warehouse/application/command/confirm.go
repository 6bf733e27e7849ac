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
	"time"

	"github.com/avast/retry-go"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

// ConfirmOrderCommand 购物车转为订单：保存订单、登记自动关闭、扣减主库区库存，成功提交后删除购物车
type ConfirmOrderCommand struct {
	ddd.Command

	deps     *Deps
	clientID string
	sectorID string
}

func NewConfirmOrderCommand(deps *Deps, clientID string) *ConfirmOrderCommand {
	return &ConfirmOrderCommand{deps: deps, clientID: clientID}
}

func (c *ConfirmOrderCommand) Init(ctx context.Context) ([]string, error) {
	sectorID, err := c.deps.mainSectorID(ctx)
	if err != nil {
		return nil, err
	}
	c.sectorID = sectorID
	return []string{CartLockKey(c.clientID), SectorLockKey(sectorID)}, nil
}

func (c *ConfirmOrderCommand) Main(ctx context.Context, repo *ddd.Repository) error {
	cart, ok, err := c.deps.Carts.Get(ctx, c.clientID)
	if err != nil {
		return err
	}
	if !ok || cart.IsEmpty() {
		return fmt.Errorf("client %s has no pending order: %w", c.clientID, domain.ErrInvalidState)
	}
	log := c.deps.logger().WithValues("clientID", c.clientID)
	// 上次确认已提交但购物车没删掉
	if cart.OrderID != "" {
		_, err := c.deps.Orders.FindByID(ctx, cart.OrderID)
		if err == nil {
			if err := c.discardCart(ctx); err != nil {
				log.Error(err, "discard confirmed cart failed", "orderID", cart.OrderID)
			}
			return fmt.Errorf("cart of client %s already confirmed as order %s: %w", c.clientID, cart.OrderID, domain.ErrInvalidState)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}

	now := c.deps.now()
	order := cart.ToOrder(now)
	prices, err := loadPrices(ctx, c.deps, order.Lines)
	if err != nil {
		return err
	}
	if err := order.RecalculateTotalPrice(prices); err != nil {
		return err
	}

	err = NewSaga("confirm-order", log).
		Step("register-order", func(ctx context.Context) error {
			repo.Add(order)
			if order.ID == "" {
				return ddd.ErrEntityWithoutID
			}
			return nil
		}, nil).
		Step("schedule-closure", func(ctx context.Context) error {
			return ScheduleClosure(ctx, repo, order.ID, now.Add(c.deps.ClosureDelay))
		}, func(ctx context.Context) error {
			return CancelClosure(ctx, repo, order.ID)
		}).
		Step("debit-stock", func(ctx context.Context) error {
			return c.debit(ctx, repo, order)
		}, nil).
		Run(ctx)
	if err != nil {
		return err
	}

	order.Confirmed()
	log.Info("order confirmed", "orderID", order.ID, "total", order.TotalPrice.String())
	repo.OnCommitted(func(ctx context.Context) {
		if err := c.discardCart(ctx); err != nil {
			log.Error(err, "discard cart failed", "orderID", order.ID)
		}
		c.deps.Metrics.OrderConfirmed()
		for _, line := range order.Lines {
			c.deps.Metrics.Stock(string(event.StockOut), line.Quantity)
		}
	})
	repo.Output(order.ID)
	return nil
}

func (c *ConfirmOrderCommand) debit(ctx context.Context, repo *ddd.Repository, order *domain.SaleOrder) error {
	sector, err := c.deps.Sectors.FindByID(ctx, c.sectorID)
	if err != nil {
		return err
	}
	repo.Attach(sector)
	for _, line := range order.Lines {
		if err := sector.RemoveAmountOfProduct(line); err != nil {
			return fmt.Errorf("debit order %s: %w", order.ID, err)
		}
	}
	return nil
}

// discardCart 购物车存储不在事务内，删除失败时短暂重试
func (c *ConfirmOrderCommand) discardCart(ctx context.Context) error {
	return retry.Do(
		func() error {
			return c.deps.Carts.Delete(ctx, c.clientID)
		},
		retry.Context(ctx),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(20*time.Millisecond),
		retry.Attempts(3),
		retry.LastErrorOnly(true),
	)
}
