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
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/command"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

type ProductService struct {
	engine *ddd.Engine
	deps   *command.Deps
}

func NewProductService(engine *ddd.Engine, deps *command.Deps) *ProductService {
	return &ProductService{engine: engine, deps: deps}
}

func (s *ProductService) Create(ctx context.Context, code, name string, price decimal.Decimal) (*domain.Product, error) {
	product, err := domain.NewProduct(code, name, price)
	if err != nil {
		return nil, err
	}
	res := s.engine.NewStage().Lock(command.ProductLockKey(product.Code)).Main(func(ctx context.Context, repo *ddd.Repository) error {
		_, err := s.deps.Products.FindByCode(ctx, product.Code)
		if err == nil {
			return fmt.Errorf("product code %s already exists: %w", product.Code, domain.ErrInvalidArgument)
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		repo.Add(product)
		return nil
	}).Save(ctx)
	if res.Error != nil {
		return nil, res.Error
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id string, name *string, price *decimal.Decimal) (*domain.Product, error) {
	var product *domain.Product
	res := s.engine.NewStage().Lock("product_id:" + id).Main(func(ctx context.Context, repo *ddd.Repository) (err error) {
		product, err = s.deps.Products.FindByID(ctx, id)
		if err != nil {
			return err
		}
		repo.Attach(product)
		return product.Update(name, price)
	}).Save(ctx)
	if res.Error != nil {
		return nil, res.Error
	}
	return product, nil
}

func (s *ProductService) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return s.deps.Products.FindByID(ctx, id)
}

func (s *ProductService) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	return s.deps.Products.FindByCode(ctx, code)
}

func (s *ProductService) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return s.deps.Products.FindAll(ctx)
}

func (s *ProductService) FindAllByName(ctx context.Context, name string) ([]*domain.Product, error) {
	return s.deps.Products.FindAllByName(ctx, name)
}

type ClientService struct {
	engine *ddd.Engine
	deps   *command.Deps
}

func NewClientService(engine *ddd.Engine, deps *command.Deps) *ClientService {
	return &ClientService{engine: engine, deps: deps}
}

func (s *ClientService) Create(ctx context.Context, name string) (*domain.Client, error) {
	client, err := domain.NewClient(name)
	if err != nil {
		return nil, err
	}
	res := s.engine.Run(ctx, func(ctx context.Context, repo *ddd.Repository) error {
		repo.Add(client)
		return nil
	})
	if res.Error != nil {
		return nil, res.Error
	}
	return client, nil
}

func (s *ClientService) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	return s.deps.Clients.FindByID(ctx, id)
}

func (s *ClientService) FindAll(ctx context.Context) ([]*domain.Client, error) {
	return s.deps.Clients.FindAll(ctx)
}
