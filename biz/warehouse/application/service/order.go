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

package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/command"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

// OrderService 购物车、订单生命周期与销售报表
type OrderService struct {
	engine    *ddd.Engine
	deps      *command.Deps
	analytics domain.SalesAnalytics
}

func NewOrderService(engine *ddd.Engine, deps *command.Deps, analytics domain.SalesAnalytics) *OrderService {
	return &OrderService{engine: engine, deps: deps, analytics: analytics}
}

// AddProductToOrder 加入购物车，同一商品重复加入时追加新行
func (s *OrderService) AddProductToOrder(ctx context.Context, clientID, productID string, quantity int) error {
	return s.engine.Run(ctx, command.NewAddProductToCartCommand(s.deps, clientID, productID, quantity), ddd.WithoutTransaction).Error
}

// PendingOrder 客户尚未确认的购物车
func (s *OrderService) PendingOrder(ctx context.Context, clientID string) (*domain.Cart, error) {
	cart, ok, err := s.deps.Carts.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("pending order of client %s: %w", clientID, domain.ErrNotFound)
	}
	return cart, nil
}

func (s *OrderService) ConfirmTempClientOrder(ctx context.Context, clientID string) (string, error) {
	return stringResult(s.engine.Run(ctx, command.NewConfirmOrderCommand(s.deps, clientID)))
}

func (s *OrderService) CloseByID(ctx context.Context, id string) (bool, error) {
	return boolResult(s.engine.Run(ctx, command.NewCloseOrderCommand(s.deps, id)))
}

func (s *OrderService) PayByID(ctx context.Context, id string) (bool, error) {
	return boolResult(s.engine.Run(ctx, command.NewTransitionOrderCommand(s.deps, id, domain.ActionPay)))
}

func (s *OrderService) SendByID(ctx context.Context, id string) (bool, error) {
	return boolResult(s.engine.Run(ctx, command.NewTransitionOrderCommand(s.deps, id, domain.ActionSend)))
}

func (s *OrderService) FindByID(ctx context.Context, id string) (*domain.SaleOrder, error) {
	return s.deps.Orders.FindByID(ctx, id)
}

func (s *OrderService) FindAll(ctx context.Context) ([]*domain.SaleOrder, error) {
	return s.deps.Orders.FindAll(ctx)
}

// DeleteByID 删除订单并撤销未执行的自动关闭，不回补库存
func (s *OrderService) DeleteByID(ctx context.Context, id string) error {
	return s.engine.NewStage().Lock(command.OrderLockKey(id)).Main(func(ctx context.Context, repo *ddd.Repository) error {
		order, err := s.deps.Orders.FindByID(ctx, id)
		if err != nil {
			return err
		}
		repo.Remove(order)
		return command.CancelClosure(ctx, repo, id)
	}).Save(ctx).Error
}

// EvictExpiredCarts 清理闲置超时的购物车
func (s *OrderService) EvictExpiredCarts(ctx context.Context) (int, error) {
	n, err := s.deps.Carts.EvictExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.deps.Metrics.Evicted(n)
	return n, nil
}

func (s *OrderService) mustClient(ctx context.Context, clientID string) error {
	ok, err := s.deps.Clients.ExistsByID(ctx, clientID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("client %s: %w", clientID, domain.ErrNotFound)
	}
	return nil
}

func (s *OrderService) FindAllByClientID(ctx context.Context, clientID string) ([]*domain.SaleOrder, error) {
	if err := s.mustClient(ctx, clientID); err != nil {
		return nil, err
	}
	return s.deps.Orders.FindAllByClientID(ctx, clientID)
}

func (s *OrderService) clientPrice(ctx context.Context, clientID string,
	query func(ctx context.Context, clientID string) (decimal.Decimal, error)) (decimal.Decimal, error) {
	if err := s.mustClient(ctx, clientID); err != nil {
		return decimal.Zero, err
	}
	return query(ctx, clientID)
}

func (s *OrderService) FindMaxPriceInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return s.clientPrice(ctx, clientID, s.analytics.MaxPriceInClientOrders)
}

func (s *OrderService) FindMinPriceInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return s.clientPrice(ctx, clientID, s.analytics.MinPriceInClientOrders)
}

func (s *OrderService) FindMaxPriceOfProductInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return s.clientPrice(ctx, clientID, s.analytics.MaxPriceOfProductInClientOrders)
}

func (s *OrderService) FindAveragePriceOfProductInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return s.clientPrice(ctx, clientID, s.analytics.AveragePriceOfProductInClientOrders)
}

// FindMostCommonlyPurchasedProducts 客户购买总量降序，数量相同保持查询顺序
func (s *OrderService) FindMostCommonlyPurchasedProducts(ctx context.Context, clientID string) ([]domain.ProductCount, error) {
	if err := s.mustClient(ctx, clientID); err != nil {
		return nil, err
	}
	counts, err := s.analytics.ProductQuantitiesOfClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return domain.SortByCountDesc(counts), nil
}

func (s *OrderService) FindFrequentlyBoughtTogether(ctx context.Context, productID string) ([]domain.ProductCount, error) {
	ok, err := s.deps.Products.ExistsByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	counts, err := s.analytics.FrequentlyBoughtTogether(ctx, productID)
	if err != nil {
		return nil, err
	}
	return domain.SortByCountDesc(counts), nil
}
