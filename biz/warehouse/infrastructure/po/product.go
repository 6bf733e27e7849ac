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
)

type ProductPO struct {
	ID        string          `gorm:"primaryKey;column:id;type:varchar(32)"`
	Code      string          `gorm:"column:code;type:varchar(64);uniqueIndex:idx_product_code;not null"`
	Name      string          `gorm:"column:name;type:varchar(255);index"`
	Price     decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *ProductPO) TableName() string {
	return "warehouse_product"
}

func (p *ProductPO) GetID() string {
	return p.ID
}

type ClientPO struct {
	ID        string `gorm:"primaryKey;column:id;type:varchar(32)"`
	Name      string `gorm:"column:name;type:varchar(255);not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *ClientPO) TableName() string {
	return "warehouse_client"
}

func (c *ClientPO) GetID() string {
	return c.ID
}

// Models 需要建表的全部 PO
func Models() []interface{} {
	return []interface{}{
		&ProductPO{}, &ClientPO{}, &SectorPO{}, &SectorStockPO{},
		&SaleOrderPO{}, &SaleOrderLinePO{}, &OrderedProductPO{},
	}
}
