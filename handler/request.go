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
	"github.com/shopspring/decimal"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

type Sector struct {
	ID       string                   `json:"ID"`
	Name     string                   `json:"Name"`
	Capacity int                      `json:"Capacity"`
	Held     int                      `json:"Held"`
	Stock    []domain.AmountOfProduct `json:"Stock"`
}

func packSector(s *domain.InventorySector) *Sector {
	return &Sector{ID: s.ID, Name: s.Name, Capacity: s.Capacity, Held: s.TotalQuantity(), Stock: s.Amounts()}
}

type CreateSectorRequest struct {
	Name     string `json:"Name"`
	Capacity int    `json:"Capacity"`
}

type UpdateSectorRequest struct {
	ID       string `json:"ID"`
	Name     string `json:"Name"`
	Capacity int    `json:"Capacity"`
}

type GetSectorRequest struct {
	ID   string `json:"ID,omitempty"`
	Name string `json:"Name,omitempty"`
}

type ListSectorsRequest struct{}

type AddStockRequest struct {
	SectorID string          `json:"SectorID"`
	Code     string          `json:"Code"`
	Name     string          `json:"Name"`
	Price    decimal.Decimal `json:"Price"`
	// Delivered 本次到货总量，Amount 为放入库区的数量
	Delivered int `json:"Delivered"`
	Amount    int `json:"Amount"`
}

type AddStockResponse struct {
	Placed    bool `json:"Placed"`
	Remaining int  `json:"Remaining"`
}

type RemoveStockRequest struct {
	SectorID  string `json:"SectorID"`
	ProductID string `json:"ProductID"`
	Quantity  int    `json:"Quantity"`
}

type CreateProductRequest struct {
	Code  string          `json:"Code"`
	Name  string          `json:"Name"`
	Price decimal.Decimal `json:"Price"`
}

type UpdateProductRequest struct {
	ID    string           `json:"ID"`
	Name  *string          `json:"Name,omitempty"`
	Price *decimal.Decimal `json:"Price,omitempty"`
}

type GetProductRequest struct {
	ID   string `json:"ID,omitempty"`
	Code string `json:"Code,omitempty"`
}

type ListProductsRequest struct {
	Name string `json:"Name,omitempty"`
}

type CreateClientRequest struct {
	Name string `json:"Name"`
}

type GetClientRequest struct {
	ID string `json:"ID"`
}

type AddToCartRequest struct {
	ClientID  string `json:"ClientID"`
	ProductID string `json:"ProductID"`
	Quantity  int    `json:"Quantity"`
}

type ClientRequest struct {
	ClientID string `json:"ClientID"`
}

type ConfirmOrderResponse struct {
	OrderID string `json:"OrderID"`
}

type OrderRequest struct {
	ID string `json:"ID"`
}

type ListOrdersRequest struct {
	ClientID string `json:"ClientID,omitempty"`
}

type ProductRequest struct {
	ProductID string `json:"ProductID"`
}

type OKResponse struct {
	OK bool `json:"OK"`
}

type PriceResponse struct {
	Price decimal.Decimal `json:"Price"`
}
