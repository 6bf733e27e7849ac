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

package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/po"
)

type SectorRepo struct {
	db DBProvider
}

func NewSectorRepo(db DBProvider) *SectorRepo {
	return &SectorRepo{db: db}
}

func (r *SectorRepo) FindByID(ctx context.Context, id string) (*domain.InventorySector, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *SectorRepo) FindByName(ctx context.Context, name string) (*domain.InventorySector, error) {
	return r.first(ctx, "name = ?", domain.NormalizeSectorName(name))
}

func (r *SectorRepo) first(ctx context.Context, cond string, arg string) (*domain.InventorySector, error) {
	db := r.db.DB(ctx)
	m := &po.SectorPO{}
	if err := db.Where(cond, arg).First(m).Error; err != nil {
		return nil, notFound(err, "sector", arg)
	}
	stock := make([]*po.SectorStockPO, 0)
	if err := db.Where("sector_id = ?", m.ID).Find(&stock).Error; err != nil {
		return nil, err
	}
	return toSector(m, stock), nil
}

func (r *SectorRepo) FindAll(ctx context.Context) ([]*domain.InventorySector, error) {
	db := r.db.DB(ctx)
	ms := make([]*po.SectorPO, 0)
	if err := db.Order("name").Find(&ms).Error; err != nil {
		return nil, err
	}
	stock := make([]*po.SectorStockPO, 0)
	if err := db.Find(&stock).Error; err != nil {
		return nil, err
	}
	bySector := make(map[string][]*po.SectorStockPO)
	for _, st := range stock {
		bySector[st.SectorID] = append(bySector[st.SectorID], st)
	}
	res := make([]*domain.InventorySector, len(ms))
	for i, m := range ms {
		res[i] = toSector(m, bySector[m.ID])
	}
	return res, nil
}

type OrderRepo struct {
	db DBProvider
}

func NewOrderRepo(db DBProvider) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) FindByID(ctx context.Context, id string) (*domain.SaleOrder, error) {
	db := r.db.DB(ctx)
	m := &po.SaleOrderPO{}
	if err := db.Where("id = ?", id).First(m).Error; err != nil {
		return nil, notFound(err, "order", id)
	}
	lines := make([]*po.SaleOrderLinePO, 0)
	if err := db.Where("order_id = ?", id).Order("position").Find(&lines).Error; err != nil {
		return nil, err
	}
	return toOrder(m, lines), nil
}

func (r *OrderRepo) FindAll(ctx context.Context) ([]*domain.SaleOrder, error) {
	return r.find(ctx, r.db.DB(ctx))
}

func (r *OrderRepo) FindAllByClientID(ctx context.Context, clientID string) ([]*domain.SaleOrder, error) {
	return r.find(ctx, r.db.DB(ctx).Where("client_id = ?", clientID))
}

func (r *OrderRepo) find(ctx context.Context, db *gorm.DB) ([]*domain.SaleOrder, error) {
	ms := make([]*po.SaleOrderPO, 0)
	if err := db.Order("created_at").Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return []*domain.SaleOrder{}, nil
	}
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	lines := make([]*po.SaleOrderLinePO, 0)
	if err := r.db.DB(ctx).Where("order_id IN ?", ids).Order("order_id").Order("position").Find(&lines).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[string][]*po.SaleOrderLinePO)
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}
	res := make([]*domain.SaleOrder, len(ms))
	for i, m := range ms {
		res[i] = toOrder(m, byOrder[m.ID])
	}
	return res, nil
}

type OrderedProductRepo struct {
	db DBProvider
}

func NewOrderedProductRepo(db DBProvider) *OrderedProductRepo {
	return &OrderedProductRepo{db: db}
}

func (r *OrderedProductRepo) FindByOrderID(ctx context.Context, orderID string) ([]*domain.OrderedProduct, error) {
	ms := make([]*po.OrderedProductPO, 0)
	if err := r.db.DB(ctx).Where("order_id = ?", orderID).Order("product_id").Find(&ms).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.OrderedProduct, len(ms))
	for i, m := range ms {
		res[i] = &domain.OrderedProduct{ID: m.ID, OrderID: m.OrderID, ProductID: m.ProductID, Quantity: m.Quantity}
	}
	return res, nil
}
