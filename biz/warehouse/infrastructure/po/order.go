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

package po

import (
	"time"

	"github.com/shopspring/decimal"

	executor "github.com/bytedance/dddwarehouse/executor/sql"
)

type SaleOrderPO struct {
	ID         string          `gorm:"primaryKey;column:id;type:varchar(32)"`
	ClientID   string          `gorm:"column:client_id;type:varchar(32);index;not null"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:decimal(20,2);not null"`
	Status     string          `gorm:"column:status;type:varchar(16);index;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;type:datetime"`
	UpdatedAt  time.Time

	Lines []*SaleOrderLinePO `gorm:"-"`
}

func (o *SaleOrderPO) TableName() string {
	return "warehouse_sale_order"
}

func (o *SaleOrderPO) GetID() string {
	return o.ID
}

// OwnedRows 订单行按位置整体重写
func (o *SaleOrderPO) OwnedRows() []executor.Owned {
	return []executor.Owned{{Model: &SaleOrderLinePO{}, ForeignKey: "order_id", Rows: o.Lines}}
}

// SaleOrderLinePO 订单行，Position 保持加入购物车的顺序
type SaleOrderLinePO struct {
	ID        int64  `gorm:"primaryKey;column:id;autoIncrement"`
	OrderID   string `gorm:"column:order_id;type:varchar(32);index;not null"`
	Position  int    `gorm:"column:position;not null"`
	ProductID string `gorm:"column:product_id;type:varchar(32);index;not null"`
	Quantity  int    `gorm:"column:quantity;not null"`
}

func (l *SaleOrderLinePO) TableName() string {
	return "warehouse_sale_order_line"
}

type OrderedProductPO struct {
	ID        string `gorm:"primaryKey;column:id;type:varchar(32)"`
	OrderID   string `gorm:"column:order_id;type:varchar(32);index"`
	ProductID string `gorm:"column:product_id;type:varchar(32);index;not null"`
	Quantity  int    `gorm:"column:quantity;not null"`
	CreatedAt time.Time
}

func (p *OrderedProductPO) TableName() string {
	return "warehouse_ordered_product"
}

func (p *OrderedProductPO) GetID() string {
	return p.ID
}
