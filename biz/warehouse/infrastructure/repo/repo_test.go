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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/po"
	executor "github.com/bytedance/dddwarehouse/executor/sql"
	"github.com/bytedance/dddwarehouse/lock/mem"
	"github.com/bytedance/dddwarehouse/testsuit"
)

func newExecutor() *executor.Executor {
	return executor.NewExecutor(testsuit.InitSqlite(po.Models()...))
}

func run(exec *executor.Executor, f func(repo *ddd.Repository) error) error {
	engine := ddd.NewEngine(mem.NewMemLock(), exec)
	return engine.Run(context.Background(), func(ctx context.Context, repo *ddd.Repository) error {
		return f(repo)
	}).Error
}

func add(t *testing.T, exec *executor.Executor, roots ...ddd.IEntity) {
	require.NoError(t, run(exec, func(repo *ddd.Repository) error {
		repo.Add(roots...)
		return nil
	}))
}

func TestProductRepo(t *testing.T) {
	ctx := context.Background()
	exec := newExecutor()
	r := NewProductRepo(exec)

	p := &domain.Product{ID: "p1", Code: "P1", Name: "syrup", Price: decimal.RequireFromString("2.50")}
	add(t, exec, p, &domain.Product{ID: "p2", Code: "P2", Name: "syrup", Price: decimal.NewFromInt(3)})

	got, err := r.FindByCode(ctx, "P1")
	assert.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.True(t, decimal.RequireFromString("2.5").Equal(got.Price))

	_, err = r.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = r.FindByCode(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err := r.ExistsByID(ctx, "p2")
	assert.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, run(exec, func(repo *ddd.Repository) error {
		got, err := r.FindByID(ctx, "p1")
		if err != nil {
			return err
		}
		repo.Attach(got)
		price := decimal.NewFromInt(7)
		return got.Update(nil, &price)
	}))
	got, _ = r.FindByID(ctx, "p1")
	assert.True(t, decimal.NewFromInt(7).Equal(got.Price))
	assert.Equal(t, "syrup", got.Name)

	byName, err := r.FindAllByName(ctx, "syrup")
	assert.NoError(t, err)
	assert.Len(t, byName, 2)

	byIDs, err := r.FindByIDs(ctx, []string{"p1", "p3"})
	assert.NoError(t, err)
	assert.Len(t, byIDs, 1)

	// code 唯一
	assert.Error(t, run(exec, func(repo *ddd.Repository) error {
		repo.Add(&domain.Product{ID: "p3", Code: "P1"})
		return nil
	}))
}

func TestClientRepo(t *testing.T) {
	ctx := context.Background()
	exec := newExecutor()
	r := NewClientRepo(exec)

	add(t, exec, &domain.Client{ID: "c1", Name: "Bob"})
	c, err := r.FindByID(ctx, "c1")
	assert.NoError(t, err)
	assert.Equal(t, "Bob", c.Name)

	ok, _ := r.ExistsByID(ctx, "c2")
	assert.False(t, ok)
	_, err = r.FindByID(ctx, "c2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := r.FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSectorRepo(t *testing.T) {
	ctx := context.Background()
	exec := newExecutor()
	r := NewSectorRepo(exec)

	s, _ := domain.NewInventorySector("main", 100)
	s.ID = "s1"
	require.NoError(t, s.AddAmountOfProduct(domain.AmountOfProduct{ProductID: "p1", Quantity: 50}))
	require.NoError(t, s.AddAmountOfProduct(domain.AmountOfProduct{ProductID: "p2", Quantity: 5}))
	add(t, exec, s)

	got, err := r.FindByName(ctx, "Main")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, 50, got.QuantityOf("p1"))
	assert.Equal(t, 55, got.TotalQuantity())

	require.NoError(t, run(exec, func(repo *ddd.Repository) error {
		repo.Attach(got)
		return got.RemoveAmountOfProduct(domain.AmountOfProduct{ProductID: "p2", Quantity: 5})
	}))
	got, _ = r.FindByID(ctx, "s1")
	assert.Equal(t, []domain.AmountOfProduct{{ProductID: "p1", Quantity: 50}}, got.Amounts())

	_, err = r.FindByID(ctx, "s2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	other, _ := domain.NewInventorySector("aux", 10)
	other.ID = "s2"
	add(t, exec, other)
	all, err := r.FindAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "AUX", all[0].Name)
	assert.Empty(t, all[0].Stock)
	assert.Equal(t, 50, all[1].QuantityOf("p1"))
}

func TestSectorRollback(t *testing.T) {
	exec := newExecutor()
	r := NewSectorRepo(exec)

	s, _ := domain.NewInventorySector("main", 100)
	s.ID = "s1"
	add(t, exec, s)

	err := run(exec, func(repo *ddd.Repository) error {
		repo.Attach(s)
		if err := s.AddAmountOfProduct(domain.AmountOfProduct{ProductID: "p1", Quantity: 10}); err != nil {
			return err
		}
		return domain.ErrInvalidState
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := r.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalQuantity())
}

func TestOrderRepo(t *testing.T) {
	ctx := context.Background()
	exec := newExecutor()
	r := NewOrderRepo(exec)

	now := time.Now().Truncate(time.Second)
	o := &domain.SaleOrder{
		ID:         "o1",
		ClientID:   "c1",
		CreatedAt:  now,
		Lines:      []domain.AmountOfProduct{{ProductID: "p2", Quantity: 1}, {ProductID: "p1", Quantity: 3}, {ProductID: "p2", Quantity: 2}},
		TotalPrice: decimal.RequireFromString("12.5"),
		Status:     domain.StatusNew,
	}
	add(t, exec, o, &domain.SaleOrder{ID: "o2", ClientID: "c2", CreatedAt: now, Status: domain.StatusNew})

	got, err := r.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, o.Lines, got.Lines)
	assert.Equal(t, domain.StatusNew, got.Status)
	assert.True(t, o.TotalPrice.Equal(got.TotalPrice))

	require.NoError(t, run(exec, func(repo *ddd.Repository) error {
		repo.Attach(got)
		got.PayOrder()
		return nil
	}))
	got, _ = r.FindByID(ctx, "o1")
	assert.Equal(t, domain.StatusPaid, got.Status)
	assert.Len(t, got.Lines, 3)
	assert.False(t, got.CreatedAt.IsZero())

	byClient, err := r.FindAllByClientID(ctx, "c1")
	assert.NoError(t, err)
	assert.Len(t, byClient, 1)
	all, _ := r.FindAll(ctx)
	assert.Len(t, all, 2)

	require.NoError(t, run(exec, func(repo *ddd.Repository) error {
		repo.Remove(got)
		return nil
	}))
	_, err = r.FindByID(ctx, "o1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	var lines int64
	require.NoError(t, exec.DB(ctx).Model(&po.SaleOrderLinePO{}).Where("order_id = ?", "o1").Count(&lines).Error)
	assert.Zero(t, lines)
}

func TestOrderedProductRepo(t *testing.T) {
	ctx := context.Background()
	exec := newExecutor()
	r := NewOrderedProductRepo(exec)
	add(t, exec,
		&domain.OrderedProduct{ID: "x1", OrderID: "o1", ProductID: "p2", Quantity: 2},
		&domain.OrderedProduct{ID: "x2", OrderID: "o1", ProductID: "p1", Quantity: 1},
	)
	items, err := r.FindByOrderID(ctx, "o1")
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "p1", items[0].ProductID)
}

func TestConverterRoundTrip(t *testing.T) {
	exec := newExecutor()
	s, _ := domain.NewInventorySector("main", 100)
	s.ID = "s1"
	require.NoError(t, s.AddAmountOfProduct(domain.AmountOfProduct{ProductID: "p1", Quantity: 4}))

	m, err := exec.Entity2Model(s, nil, ddd.OpInsert)
	require.NoError(t, err)
	assert.Len(t, m.(*po.SectorPO).Stock, 1)

	back := &domain.InventorySector{}
	require.NoError(t, exec.Model2Entity(m, back))
	assert.Equal(t, "s1", back.GetID())
	assert.Equal(t, 4, back.QuantityOf("p1"))

	_, err = exec.Entity2Model(&ddd.BaseEntity{}, nil, ddd.OpInsert)
	assert.ErrorIs(t, err, ddd.ErrEntityNotRegister)
}
