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
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/cart"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/command"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/event_handler"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/service"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/dal"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/po"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/repo"
	eventbus "github.com/bytedance/dddwarehouse/eventbus/sql"
	executor "github.com/bytedance/dddwarehouse/executor/sql"
	"github.com/bytedance/dddwarehouse/lock/mem"
	"github.com/bytedance/dddwarehouse/metrics"
	"github.com/bytedance/dddwarehouse/testsuit"
	timer "github.com/bytedance/dddwarehouse/timer/sql"
)

const closureDelay = 7 * 24 * time.Hour

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Add(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type env struct {
	clock   *testClock
	db      *gorm.DB
	timer   *timer.DBTimer
	bus     *eventbus.EventBus
	carts   *cart.MemStore
	metrics *metrics.Metrics
	deps    *command.Deps

	sectors  *service.SectorService
	orders   *service.OrderService
	products *service.ProductService
	clients  *service.ClientService
}

func newEnv(t *testing.T) *env {
	models := append(po.Models(), &timer.TimerJob{}, &eventbus.EventPO{}, &eventbus.ServicePO{})
	db := testsuit.InitSqlite(models...)
	exec := executor.NewExecutor(db)
	clock := &testClock{t: time.Now()}

	tm := timer.NewDBTimer(t.Name(), db, timer.WithClock(clock.Now), timer.WithDBProvider(exec.DB), timer.WithRetry(time.Minute, 2))
	bus := eventbus.NewEventBus("warehouse_test", db, eventbus.WithClock(clock.Now), eventbus.WithDBProvider(exec.DB))
	engine := ddd.NewEngine(mem.NewMemLock(), exec, ddd.WithTimer(tm), ddd.WithEventBus(bus))

	carts := cart.NewMemStore(cart.WithTTL(time.Hour), cart.WithClock(clock.Now))
	m := metrics.New(prometheus.NewRegistry())
	deps := &command.Deps{
		Products:       repo.NewProductRepo(exec),
		Clients:        repo.NewClientRepo(exec),
		Sectors:        repo.NewSectorRepo(exec),
		Orders:         repo.NewOrderRepo(exec),
		Ordered:        repo.NewOrderedProductRepo(exec),
		Carts:          carts,
		Metrics:        m,
		Now:            clock.Now,
		MainSectorName: "main",
		ClosureDelay:   closureDelay,
	}
	e := &env{
		clock:    clock,
		db:       db,
		timer:    tm,
		bus:      bus,
		carts:    carts,
		metrics:  m,
		deps:     deps,
		sectors:  service.NewSectorService(engine, deps),
		orders:   service.NewOrderService(engine, deps, dal.NewDAL(exec)),
		products: service.NewProductService(engine, deps),
		clients:  service.NewClientService(engine, deps),
	}
	require.NoError(t, event_handler.Register(context.Background(), engine, e.orders, deps.Ordered,
		event_handler.Options{SweepCron: "@every 1m"}))
	return e
}

// seed 建立主库区、一个客户，并入库 quantity 个 P1
func (e *env) seed(t *testing.T, capacity, quantity int) (*domain.InventorySector, *domain.Client, *domain.Product) {
	ctx := context.Background()
	sector, err := e.sectors.Create(ctx, "main", capacity)
	require.NoError(t, err)
	client, err := e.clients.Create(ctx, "C1")
	require.NoError(t, err)

	p1, err := domain.NewProduct("P1", "maple syrup", decimal.RequireFromString("2.50"))
	require.NoError(t, err)
	if quantity > 0 {
		ok, err := e.sectors.AddProductWithQuantity(ctx, domain.NewProductWithQuantity(p1, quantity), quantity, sector.ID)
		require.NoError(t, err)
		require.True(t, ok)
	}
	product, err := e.products.FindByCode(ctx, "P1")
	if err != nil {
		product, err = e.products.Create(ctx, "P1", "maple syrup", decimal.RequireFromString("2.50"))
		require.NoError(t, err)
	}
	return sector, client, product
}

func (e *env) held(t *testing.T, sectorID, productID string) int {
	s, err := e.sectors.FindByID(context.Background(), sectorID)
	require.NoError(t, err)
	return s.QuantityOf(productID)
}
