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

package event_handler

import (
	"context"
	"errors"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/service"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
	logging "github.com/bytedance/dddwarehouse/logger"
	"github.com/bytedance/dddwarehouse/logger/stdr"
)

var logger = stdr.NewStdr("warehouse_handler")

const CartSweepTask ddd.EventType = "warehouse_cart_sweep"

// OnOrderClosureDue 自动关闭订单，订单已关闭或已删除时视为成功
func OnOrderClosureDue(orders *service.OrderService) func(ctx context.Context, evt *event.OrderClosureDueEvent) error {
	return func(ctx context.Context, evt *event.OrderClosureDueEvent) error {
		closed, err := orders.CloseByID(ctx, evt.OrderID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("order to close not found", "orderID", evt.OrderID)
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("scheduled closure done", "orderID", evt.OrderID, "closed", closed)
		return nil
	}
}

func onStockChanged(ctx context.Context, evt *event.StockChangedEvent) error {
	logger.V(logging.LevelDebug).Info("stock changed",
		"sectorID", evt.SectorID, "productID", evt.ProductID, "quantity", evt.Quantity, "direction", evt.Direction)
	return nil
}

type Options struct {
	// SweepCron 为空时不注册购物车清理任务
	SweepCron string
}

func Register(ctx context.Context, engine *ddd.Engine, orders *service.OrderService, ordered domain.OrderedProductRepository, opt Options) error {
	engine.RegisterEventHandler(event.EventOrderConfirmed, NewOnOrderConfirmedHandler(ordered))
	engine.RegisterEventFunc(event.EventOrderClosureDue, OnOrderClosureDue(orders))
	engine.RegisterEventFunc(event.EventStockChanged, onStockChanged)

	if opt.SweepCron == "" {
		return nil
	}
	return engine.RegisterCronTask(ctx, CartSweepTask, opt.SweepCron, func(ctx context.Context, key, cron string) error {
		n, err := orders.EvictExpiredCarts(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("idle carts evicted", "count", n)
		}
		return nil
	})
}
