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

package handler

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bytedance/dddwarehouse/biz/warehouse/application/service"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

// WarehouseServiceImpl 对外暴露的接口，方法名即 HTTP 请求中的 Action
type WarehouseServiceImpl struct {
	sectors  *service.SectorService
	products *service.ProductService
	clients  *service.ClientService
	orders   *service.OrderService
}

func NewWarehouseService(sectors *service.SectorService, products *service.ProductService,
	clients *service.ClientService, orders *service.OrderService) *WarehouseServiceImpl {
	return &WarehouseServiceImpl{sectors: sectors, products: products, clients: clients, orders: orders}
}

func (s *WarehouseServiceImpl) CreateSector(ctx context.Context, req *CreateSectorRequest) (*Sector, error) {
	sector, err := s.sectors.Create(ctx, req.Name, req.Capacity)
	if err != nil {
		return nil, err
	}
	return packSector(sector), nil
}

func (s *WarehouseServiceImpl) UpdateSector(ctx context.Context, req *UpdateSectorRequest) (*Sector, error) {
	sector, err := s.sectors.SaveOrUpdate(ctx, req.ID, req.Name, req.Capacity)
	if err != nil {
		return nil, err
	}
	return packSector(sector), nil
}

func (s *WarehouseServiceImpl) GetSector(ctx context.Context, req *GetSectorRequest) (*Sector, error) {
	var (
		sector *domain.InventorySector
		err    error
	)
	switch {
	case req.ID != "":
		sector, err = s.sectors.FindByID(ctx, req.ID)
	case req.Name != "":
		sector, err = s.sectors.FindByName(ctx, req.Name)
	default:
		return nil, fmt.Errorf("ID or Name is required: %w", domain.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	return packSector(sector), nil
}

func (s *WarehouseServiceImpl) ListSectors(ctx context.Context, req *ListSectorsRequest) ([]*Sector, error) {
	sectors, err := s.sectors.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]*Sector, 0, len(sectors))
	for _, sector := range sectors {
		res = append(res, packSector(sector))
	}
	return res, nil
}

func (s *WarehouseServiceImpl) AddStock(ctx context.Context, req *AddStockRequest) (*AddStockResponse, error) {
	product, err := domain.NewProduct(req.Code, req.Name, req.Price)
	if err != nil {
		return nil, err
	}
	delivery := domain.NewProductWithQuantity(product, req.Delivered)
	placed, err := s.sectors.AddProductWithQuantity(ctx, delivery, req.Amount, req.SectorID)
	if err != nil {
		return nil, err
	}
	return &AddStockResponse{Placed: placed, Remaining: delivery.Quantity}, nil
}

func (s *WarehouseServiceImpl) RemoveStock(ctx context.Context, req *RemoveStockRequest) (*OKResponse, error) {
	ok, err := s.sectors.RemoveAmountOfProduct(ctx, domain.AmountOfProduct{ProductID: req.ProductID, Quantity: req.Quantity}, req.SectorID)
	if err != nil {
		return nil, err
	}
	return &OKResponse{OK: ok}, nil
}

func (s *WarehouseServiceImpl) CreateProduct(ctx context.Context, req *CreateProductRequest) (*domain.Product, error) {
	return s.products.Create(ctx, req.Code, req.Name, req.Price)
}

func (s *WarehouseServiceImpl) UpdateProduct(ctx context.Context, req *UpdateProductRequest) (*domain.Product, error) {
	return s.products.Update(ctx, req.ID, req.Name, req.Price)
}

func (s *WarehouseServiceImpl) GetProduct(ctx context.Context, req *GetProductRequest) (*domain.Product, error) {
	if req.ID != "" {
		return s.products.FindByID(ctx, req.ID)
	}
	if req.Code != "" {
		return s.products.FindByCode(ctx, req.Code)
	}
	return nil, fmt.Errorf("ID or Code is required: %w", domain.ErrInvalidArgument)
}

func (s *WarehouseServiceImpl) ListProducts(ctx context.Context, req *ListProductsRequest) ([]*domain.Product, error) {
	if req.Name != "" {
		return s.products.FindAllByName(ctx, req.Name)
	}
	return s.products.FindAll(ctx)
}

func (s *WarehouseServiceImpl) CreateClient(ctx context.Context, req *CreateClientRequest) (*domain.Client, error) {
	return s.clients.Create(ctx, req.Name)
}

func (s *WarehouseServiceImpl) GetClient(ctx context.Context, req *GetClientRequest) (*domain.Client, error) {
	return s.clients.FindByID(ctx, req.ID)
}

func (s *WarehouseServiceImpl) AddProductToOrder(ctx context.Context, req *AddToCartRequest) (*domain.Cart, error) {
	if err := s.orders.AddProductToOrder(ctx, req.ClientID, req.ProductID, req.Quantity); err != nil {
		return nil, err
	}
	return s.orders.PendingOrder(ctx, req.ClientID)
}

func (s *WarehouseServiceImpl) PendingOrder(ctx context.Context, req *ClientRequest) (*domain.Cart, error) {
	return s.orders.PendingOrder(ctx, req.ClientID)
}

func (s *WarehouseServiceImpl) ConfirmOrder(ctx context.Context, req *ClientRequest) (*ConfirmOrderResponse, error) {
	id, err := s.orders.ConfirmTempClientOrder(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	return &ConfirmOrderResponse{OrderID: id}, nil
}

func (s *WarehouseServiceImpl) transit(ctx context.Context, id string, f func(context.Context, string) (bool, error)) (*OKResponse, error) {
	ok, err := f(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OKResponse{OK: ok}, nil
}

func (s *WarehouseServiceImpl) PayOrder(ctx context.Context, req *OrderRequest) (*OKResponse, error) {
	return s.transit(ctx, req.ID, s.orders.PayByID)
}

func (s *WarehouseServiceImpl) SendOrder(ctx context.Context, req *OrderRequest) (*OKResponse, error) {
	return s.transit(ctx, req.ID, s.orders.SendByID)
}

func (s *WarehouseServiceImpl) CloseOrder(ctx context.Context, req *OrderRequest) (*OKResponse, error) {
	return s.transit(ctx, req.ID, s.orders.CloseByID)
}

func (s *WarehouseServiceImpl) GetOrder(ctx context.Context, req *OrderRequest) (*domain.SaleOrder, error) {
	return s.orders.FindByID(ctx, req.ID)
}

func (s *WarehouseServiceImpl) DeleteOrder(ctx context.Context, req *OrderRequest) (*OKResponse, error) {
	if err := s.orders.DeleteByID(ctx, req.ID); err != nil {
		return nil, err
	}
	return &OKResponse{OK: true}, nil
}

func (s *WarehouseServiceImpl) ListOrders(ctx context.Context, req *ListOrdersRequest) ([]*domain.SaleOrder, error) {
	if req.ClientID != "" {
		return s.orders.FindAllByClientID(ctx, req.ClientID)
	}
	return s.orders.FindAll(ctx)
}

func (s *WarehouseServiceImpl) price(ctx context.Context, clientID string,
	f func(context.Context, string) (decimal.Decimal, error)) (*PriceResponse, error) {
	p, err := f(ctx, clientID)
	if err != nil {
		return nil, err
	}
	return &PriceResponse{Price: p}, nil
}

func (s *WarehouseServiceImpl) MaxOrderPrice(ctx context.Context, req *ClientRequest) (*PriceResponse, error) {
	return s.price(ctx, req.ClientID, s.orders.FindMaxPriceInClientOrders)
}

func (s *WarehouseServiceImpl) MinOrderPrice(ctx context.Context, req *ClientRequest) (*PriceResponse, error) {
	return s.price(ctx, req.ClientID, s.orders.FindMinPriceInClientOrders)
}

func (s *WarehouseServiceImpl) MaxProductPrice(ctx context.Context, req *ClientRequest) (*PriceResponse, error) {
	return s.price(ctx, req.ClientID, s.orders.FindMaxPriceOfProductInClientOrders)
}

func (s *WarehouseServiceImpl) AverageProductPrice(ctx context.Context, req *ClientRequest) (*PriceResponse, error) {
	return s.price(ctx, req.ClientID, s.orders.FindAveragePriceOfProductInClientOrders)
}

func (s *WarehouseServiceImpl) MostCommonProducts(ctx context.Context, req *ClientRequest) ([]domain.ProductCount, error) {
	return s.orders.FindMostCommonlyPurchasedProducts(ctx, req.ClientID)
}

func (s *WarehouseServiceImpl) BoughtTogether(ctx context.Context, req *ProductRequest) ([]domain.ProductCount, error) {
	return s.orders.FindFrequentlyBoughtTogether(ctx, req.ProductID)
}
