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
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/po"
)

// DBProvider 返回当前 ctx 使用的连接，命令执行期间为事务连接
type DBProvider interface {
	DB(ctx context.Context) *gorm.DB
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, domain.ErrNotFound)
	}
	return err
}

type ProductRepo struct {
	db DBProvider
}

func NewProductRepo(db DBProvider) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	m := &po.ProductPO{}
	if err := r.db.DB(ctx).Where("id = ?", id).First(m).Error; err != nil {
		return nil, notFound(err, "product", id)
	}
	return toProduct(m), nil
}

func (r *ProductRepo) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	res := make(map[string]*domain.Product, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	ms := make([]*po.ProductPO, 0, len(ids))
	if err := r.db.DB(ctx).Where("id IN ?", ids).Find(&ms).Error; err != nil {
		return nil, err
	}
	for _, m := range ms {
		res[m.ID] = toProduct(m)
	}
	return res, nil
}

func (r *ProductRepo) FindByCode(ctx context.Context, code string) (*domain.Product, error) {
	m := &po.ProductPO{}
	if err := r.db.DB(ctx).Where("code = ?", code).First(m).Error; err != nil {
		return nil, notFound(err, "product code", code)
	}
	return toProduct(m), nil
}

func (r *ProductRepo) FindAll(ctx context.Context) ([]*domain.Product, error) {
	return r.find(ctx, r.db.DB(ctx))
}

func (r *ProductRepo) FindAllByName(ctx context.Context, name string) ([]*domain.Product, error) {
	return r.find(ctx, r.db.DB(ctx).Where("name = ?", name))
}

func (r *ProductRepo) find(ctx context.Context, db *gorm.DB) ([]*domain.Product, error) {
	ms := make([]*po.ProductPO, 0)
	if err := db.Order("code").Find(&ms).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.Product, len(ms))
	for i, m := range ms {
		res[i] = toProduct(m)
	}
	return res, nil
}

func (r *ProductRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.DB(ctx).Model(&po.ProductPO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

type ClientRepo struct {
	db DBProvider
}

func NewClientRepo(db DBProvider) *ClientRepo {
	return &ClientRepo{db: db}
}

func (r *ClientRepo) FindByID(ctx context.Context, id string) (*domain.Client, error) {
	m := &po.ClientPO{}
	if err := r.db.DB(ctx).Where("id = ?", id).First(m).Error; err != nil {
		return nil, notFound(err, "client", id)
	}
	return toClient(m), nil
}

func (r *ClientRepo) FindAll(ctx context.Context) ([]*domain.Client, error) {
	ms := make([]*po.ClientPO, 0)
	if err := r.db.DB(ctx).Order("name").Find(&ms).Error; err != nil {
		return nil, err
	}
	res := make([]*domain.Client, len(ms))
	for i, m := range ms {
		res[i] = toClient(m)
	}
	return res, nil
}

func (r *ClientRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.DB(ctx).Model(&po.ClientPO{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
