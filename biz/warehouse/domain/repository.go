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
	"context"

	"github.com/shopspring/decimal"
)

// 仓储只负责读取，聚合根经 Repository 的 Add/Attach/Remove 落库，找不到记录时返回 ErrNotFound

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
	FindAllByName(ctx context.Context, name string) ([]*Product, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

type ClientRepository interface {
	FindByID(ctx context.Context, id string) (*Client, error)
	FindAll(ctx context.Context) ([]*Client, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

type SectorRepository interface {
	FindByID(ctx context.Context, id string) (*InventorySector, error)
	FindByName(ctx context.Context, name string) (*InventorySector, error)
	FindAll(ctx context.Context) ([]*InventorySector, error)
}

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*SaleOrder, error)
	FindAll(ctx context.Context) ([]*SaleOrder, error)
	FindAllByClientID(ctx context.Context, clientID string) ([]*SaleOrder, error)
}

type OrderedProductRepository interface {
	FindByOrderID(ctx context.Context, orderID string) ([]*OrderedProduct, error)
}

// SalesAnalytics 报表查询，没有订单时价格返回 0
type SalesAnalytics interface {
	MaxPriceInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error)
	MinPriceInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error)
	MaxPriceOfProductInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error)
	AveragePriceOfProductInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error)
	ProductQuantitiesOfClient(ctx context.Context, clientID string) ([]ProductCount, error)
	FrequentlyBoughtTogether(ctx context.Context, productID string) ([]ProductCount, error)
}
