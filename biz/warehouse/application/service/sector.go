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

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/command"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

// SectorService 库区入库出库与基础查询
type SectorService struct {
	engine *ddd.Engine
	deps   *command.Deps
}

func NewSectorService(engine *ddd.Engine, deps *command.Deps) *SectorService {
	return &SectorService{engine: engine, deps: deps}
}

// AddProductWithQuantity 从 delivery 中取 amount 放入库区，容量不足或数量非法时返回 false
func (s *SectorService) AddProductWithQuantity(ctx context.Context, delivery *domain.ProductWithQuantity, amount int, sectorID string) (bool, error) {
	return boolResult(s.engine.Run(ctx, command.NewAddStockCommand(s.deps, delivery, amount, sectorID)))
}

// RemoveAmountOfProduct 库存不足时返回 false
func (s *SectorService) RemoveAmountOfProduct(ctx context.Context, amount domain.AmountOfProduct, sectorID string) (bool, error) {
	return boolResult(s.engine.Run(ctx, command.NewRemoveStockCommand(s.deps, amount, sectorID)))
}

func (s *SectorService) FindByID(ctx context.Context, id string) (*domain.InventorySector, error) {
	return s.deps.Sectors.FindByID(ctx, id)
}

func (s *SectorService) FindByName(ctx context.Context, name string) (*domain.InventorySector, error) {
	return s.deps.Sectors.FindByName(ctx, name)
}

func (s *SectorService) FindAll(ctx context.Context) ([]*domain.InventorySector, error) {
	return s.deps.Sectors.FindAll(ctx)
}

func (s *SectorService) Create(ctx context.Context, name string, capacity int) (*domain.InventorySector, error) {
	sector, err := domain.NewInventorySector(name, capacity)
	if err != nil {
		return nil, err
	}
	res := s.engine.NewStage().Lock("sector_name:" + sector.Name).Main(func(ctx context.Context, repo *ddd.Repository) error {
		repo.Add(sector)
		return nil
	}).Save(ctx)
	if res.Error != nil {
		return nil, res.Error
	}
	return sector, nil
}

// SaveOrUpdate 修改库区名称与容量，容量不能低于现有库存
func (s *SectorService) SaveOrUpdate(ctx context.Context, id, name string, capacity int) (*domain.InventorySector, error) {
	var sector *domain.InventorySector
	res := s.engine.NewStage().Lock(command.SectorLockKey(id)).Main(func(ctx context.Context, repo *ddd.Repository) (err error) {
		sector, err = s.deps.Sectors.FindByID(ctx, id)
		if err != nil {
			return err
		}
		repo.Attach(sector)
		if err := sector.Rename(name); err != nil {
			return err
		}
		return sector.Resize(capacity)
	}).Save(ctx)
	if res.Error != nil {
		return nil, res.Error
	}
	return sector, nil
}
