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

	executor "github.com/bytedance/dddwarehouse/executor/sql"
)

type SectorPO struct {
	ID        string `gorm:"primaryKey;column:id;type:varchar(32)"`
	Name      string `gorm:"column:name;type:varchar(128);uniqueIndex:idx_sector_name;not null"`
	Capacity  int    `gorm:"column:capacity;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Stock []*SectorStockPO `gorm:"-"`
}

func (s *SectorPO) TableName() string {
	return "warehouse_sector"
}

func (s *SectorPO) GetID() string {
	return s.ID
}

func (s *SectorPO) OwnedRows() []executor.Owned {
	return []executor.Owned{{Model: &SectorStockPO{}, ForeignKey: "sector_id", Rows: s.Stock}}
}

// SectorStockPO 库区内单个商品的库存
type SectorStockPO struct {
	SectorID  string `gorm:"primaryKey;column:sector_id;type:varchar(32)"`
	ProductID string `gorm:"primaryKey;column:product_id;type:varchar(32);index"`
	Quantity  int    `gorm:"column:quantity;not null"`
}

func (s *SectorStockPO) TableName() string {
	return "warehouse_sector_stock"
}
