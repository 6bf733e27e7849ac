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

package service_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

func TestAddProductWithQuantity(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sector, _, p1 := e.seed(t, 100, 50)

	delivery := domain.NewProductWithQuantity(p1, 80)
	ok, err := e.sectors.AddProductWithQuantity(ctx, delivery, 60, sector.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 80, delivery.Quantity)
	assert.Equal(t, 50, e.held(t, sector.ID, p1.ID))

	ok, err = e.sectors.AddProductWithQuantity(ctx, delivery, 90, sector.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.sectors.AddProductWithQuantity(ctx, delivery, 0, sector.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = e.sectors.AddProductWithQuantity(ctx, delivery, 50, sector.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30, delivery.Quantity)
	assert.Equal(t, 100, e.held(t, sector.ID, p1.ID))
	assert.Equal(t, float64(100), testutil.ToFloat64(e.metrics.StockMoved.WithLabelValues("IN")))

	ok, err = e.sectors.AddProductWithQuantity(ctx, delivery, 1, sector.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.sectors.AddProductWithQuantity(ctx, delivery, 1, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddCreatesUnknownProduct(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sector, _, _ := e.seed(t, 10, 0)

	p, _ := domain.NewProduct("NEW", "oats", decimal.NewFromInt(2))
	ok, err := e.sectors.AddProductWithQuantity(ctx, domain.NewProductWithQuantity(p, 5), 5, sector.ID)
	require.NoError(t, err)
	require.True(t, ok)

	saved, err := e.products.FindByCode(ctx, "NEW")
	require.NoError(t, err)
	assert.Equal(t, 5, e.held(t, sector.ID, saved.ID))
}

func TestRemoveAmountOfProduct(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sector, _, p1 := e.seed(t, 100, 20)

	ok, err := e.sectors.RemoveAmountOfProduct(ctx, domain.AmountOfProduct{ProductID: p1.ID, Quantity: 21}, sector.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 20, e.held(t, sector.ID, p1.ID))

	ok, err = e.sectors.RemoveAmountOfProduct(ctx, domain.AmountOfProduct{ProductID: p1.ID, Quantity: 20}, sector.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, e.held(t, sector.ID, p1.ID))

	_, err = e.sectors.RemoveAmountOfProduct(ctx, domain.AmountOfProduct{ProductID: p1.ID, Quantity: 0}, sector.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSaveOrUpdateSector(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	sector, _, _ := e.seed(t, 100, 50)

	_, err := e.sectors.SaveOrUpdate(ctx, sector.ID, "main", 40)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	updated, err := e.sectors.SaveOrUpdate(ctx, sector.ID, " main ", 60)
	require.NoError(t, err)
	assert.Equal(t, "MAIN", updated.Name)
	assert.Equal(t, 60, updated.Capacity)

	_, err = e.sectors.SaveOrUpdate(ctx, "missing", "x", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := e.sectors.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProductService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	_, _, p1 := e.seed(t, 10, 0)

	_, err := e.products.Create(ctx, "P1", "dup", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = e.products.Create(ctx, "P9", "neg", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	name := "birch syrup"
	updated, err := e.products.Update(ctx, p1.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "P1", updated.Code)

	found, err := e.products.FindAllByName(ctx, name)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = e.products.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
