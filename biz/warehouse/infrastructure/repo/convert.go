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
	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/po"
	executor "github.com/bytedance/dddwarehouse/executor/sql"
)

// 聚合根的落库由 Stage 经 executor 完成，仓储只负责读取
func init() {
	executor.RegisterEntity2Model(&domain.Product{}, func(entity, parent ddd.IEntity, op ddd.OpType) (ddd.IModel, error) {
		return toProductPO(entity.(*domain.Product)), nil
	}, func(m ddd.IModel, do ddd.IEntity) error {
		fr, to := m.(*po.ProductPO), do.(*domain.Product)
		to.SetID(fr.ID)
		to.Code, to.Name, to.Price = fr.Code, fr.Name, fr.Price
		return nil
	})

	executor.RegisterEntity2Model(&domain.Client{}, func(entity, parent ddd.IEntity, op ddd.OpType) (ddd.IModel, error) {
		c := entity.(*domain.Client)
		return &po.ClientPO{ID: c.ID, Name: c.Name}, nil
	}, func(m ddd.IModel, do ddd.IEntity) error {
		fr, to := m.(*po.ClientPO), do.(*domain.Client)
		to.SetID(fr.ID)
		to.Name = fr.Name
		return nil
	})

	executor.RegisterEntity2Model(&domain.InventorySector{}, func(entity, parent ddd.IEntity, op ddd.OpType) (ddd.IModel, error) {
		s := entity.(*domain.InventorySector)
		m := &po.SectorPO{ID: s.ID, Name: s.Name, Capacity: s.Capacity}
		if op != ddd.OpDelete {
			m.Stock = toStockPOs(s)
		}
		return m, nil
	}, func(m ddd.IModel, do ddd.IEntity) error {
		fr, to := m.(*po.SectorPO), do.(*domain.InventorySector)
		s := toSector(fr, fr.Stock)
		to.SetID(s.ID)
		to.Name, to.Capacity, to.Stock = s.Name, s.Capacity, s.Stock
		return nil
	})

	executor.RegisterEntity2Model(&domain.SaleOrder{}, func(entity, parent ddd.IEntity, op ddd.OpType) (ddd.IModel, error) {
		o := entity.(*domain.SaleOrder)
		m := toOrderPO(o)
		if op != ddd.OpDelete {
			m.Lines = toLinePOs(o)
		}
		return m, nil
	}, func(m ddd.IModel, do ddd.IEntity) error {
		fr, to := m.(*po.SaleOrderPO), do.(*domain.SaleOrder)
		o := toOrder(fr, fr.Lines)
		to.SetID(o.ID)
		to.ClientID, to.CreatedAt, to.TotalPrice = o.ClientID, o.CreatedAt, o.TotalPrice
		to.Status, to.Lines = o.Status, o.Lines
		return nil
	})

	executor.RegisterEntity2Model(&domain.OrderedProduct{}, func(entity, parent ddd.IEntity, op ddd.OpType) (ddd.IModel, error) {
		it := entity.(*domain.OrderedProduct)
		return &po.OrderedProductPO{ID: it.ID, OrderID: it.OrderID, ProductID: it.ProductID, Quantity: it.Quantity}, nil
	}, func(m ddd.IModel, do ddd.IEntity) error {
		fr, to := m.(*po.OrderedProductPO), do.(*domain.OrderedProduct)
		to.SetID(fr.ID)
		to.OrderID = fr.OrderID
		to.ProductID = fr.ProductID
		to.Quantity = fr.Quantity
		return nil
	})
}

func toProductPO(p *domain.Product) *po.ProductPO {
	return &po.ProductPO{ID: p.ID, Code: p.Code, Name: p.Name, Price: p.Price}
}

func toProduct(m *po.ProductPO) *domain.Product {
	return &domain.Product{ID: m.ID, Code: m.Code, Name: m.Name, Price: m.Price}
}

func toClient(m *po.ClientPO) *domain.Client {
	return &domain.Client{ID: m.ID, Name: m.Name}
}

func toSector(m *po.SectorPO, stock []*po.SectorStockPO) *domain.InventorySector {
	s := &domain.InventorySector{
		ID:       m.ID,
		Name:     m.Name,
		Capacity: m.Capacity,
		Stock:    make(map[string]*domain.AmountOfProduct, len(stock)),
	}
	for _, st := range stock {
		s.Stock[st.ProductID] = &domain.AmountOfProduct{ProductID: st.ProductID, Quantity: st.Quantity}
	}
	return s
}

func toStockPOs(s *domain.InventorySector) []*po.SectorStockPO {
	amounts := s.Amounts()
	res := make([]*po.SectorStockPO, 0, len(amounts))
	for _, a := range amounts {
		if a.Quantity == 0 {
			continue
		}
		res = append(res, &po.SectorStockPO{SectorID: s.ID, ProductID: a.ProductID, Quantity: a.Quantity})
	}
	return res
}

func toOrderPO(o *domain.SaleOrder) *po.SaleOrderPO {
	return &po.SaleOrderPO{
		ID:         o.ID,
		ClientID:   o.ClientID,
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
	}
}

func toLinePOs(o *domain.SaleOrder) []*po.SaleOrderLinePO {
	res := make([]*po.SaleOrderLinePO, len(o.Lines))
	for i, l := range o.Lines {
		res[i] = &po.SaleOrderLinePO{OrderID: o.ID, Position: i, ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return res
}

func toOrder(m *po.SaleOrderPO, lines []*po.SaleOrderLinePO) *domain.SaleOrder {
	o := &domain.SaleOrder{
		ID:         m.ID,
		ClientID:   m.ClientID,
		CreatedAt:  m.CreatedAt,
		TotalPrice: m.TotalPrice,
		Status:     domain.OrderStatus(m.Status),
		Lines:      make([]domain.AmountOfProduct, 0, len(lines)),
	}
	for _, l := range lines {
		o.Lines = append(o.Lines, domain.AmountOfProduct{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return o
}
