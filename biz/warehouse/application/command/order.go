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

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

// CloseOrderCommand 关闭订单并把订单行退回主库区，已关闭的订单输出 false
type CloseOrderCommand struct {
	ddd.Command

	deps     *Deps
	orderID  string
	sectorID string
}

func NewCloseOrderCommand(deps *Deps, orderID string) *CloseOrderCommand {
	return &CloseOrderCommand{deps: deps, orderID: orderID}
}

func (c *CloseOrderCommand) Init(ctx context.Context) ([]string, error) {
	sectorID, err := c.deps.mainSectorID(ctx)
	if err != nil {
		return nil, err
	}
	c.sectorID = sectorID
	return []string{OrderLockKey(c.orderID), SectorLockKey(sectorID)}, nil
}

func (c *CloseOrderCommand) Main(ctx context.Context, repo *ddd.Repository) error {
	order, err := c.deps.Orders.FindByID(ctx, c.orderID)
	if err != nil {
		return err
	}
	log := c.deps.logger().WithValues("orderID", order.ID)
	from := order.Status
	repo.Attach(order)
	if !order.CloseOrder() {
		log.Info("order close rejected", "status", from)
		c.deps.Metrics.Transition(string(domain.ActionClose), false)
		repo.Output(false)
		return nil
	}

	products, err := c.deps.Products.FindByIDs(ctx, domain.ProductIDs(order.Lines))
	if err != nil {
		return err
	}
	sector, err := c.deps.Sectors.FindByID(ctx, c.sectorID)
	if err != nil {
		return err
	}
	repo.Attach(sector)
	for _, line := range order.Lines {
		product, ok := products[line.ProductID]
		if !ok {
			return fmt.Errorf("product %s of order %s: %w", line.ProductID, order.ID, domain.ErrNotFound)
		}
		placed, err := placeStock(ctx, c.deps, repo, sector, domain.NewProductWithQuantity(product, line.Quantity), line.Quantity)
		if err != nil {
			return err
		}
		if !placed {
			return fmt.Errorf("credit %d of %s back to %s: %w", line.Quantity, line.ProductID, sector.Name, domain.ErrCapacityExceeded)
		}
	}
	repo.OnCommitted(func(ctx context.Context) {
		c.deps.Metrics.Transition(string(domain.ActionClose), true)
		log.Info("order closed", "from", from)
	})
	repo.Output(true)
	return nil
}

// TransitionOrderCommand 支付或发货，状态不允许时输出 false
type TransitionOrderCommand struct {
	ddd.Command

	deps    *Deps
	orderID string
	action  domain.OrderAction
}

func NewTransitionOrderCommand(deps *Deps, orderID string, action domain.OrderAction) *TransitionOrderCommand {
	return &TransitionOrderCommand{deps: deps, orderID: orderID, action: action}
}

func (c *TransitionOrderCommand) Init(ctx context.Context) ([]string, error) {
	if c.action != domain.ActionPay && c.action != domain.ActionSend {
		return nil, fmt.Errorf("order action %q: %w", c.action, domain.ErrInvalidArgument)
	}
	return []string{OrderLockKey(c.orderID)}, nil
}

func (c *TransitionOrderCommand) Main(ctx context.Context, repo *ddd.Repository) error {
	order, err := c.deps.Orders.FindByID(ctx, c.orderID)
	if err != nil {
		return err
	}
	from := order.Status
	repo.Attach(order)
	ok, err := order.Apply(c.action)
	if err != nil {
		return err
	}
	if !ok {
		c.deps.Metrics.Transition(string(c.action), false)
		c.deps.logger().Info("order transition rejected", "orderID", order.ID, "action", c.action, "status", from)
		repo.Output(false)
		return nil
	}
	repo.OnCommitted(func(ctx context.Context) {
		c.deps.Metrics.Transition(string(c.action), true)
	})
	repo.Output(true)
	return nil
}
