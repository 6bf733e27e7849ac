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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
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
	"github.com/bytedance/dddwarehouse/config"
	mem_eventbus "github.com/bytedance/dddwarehouse/eventbus/mem"
	db_eventbus "github.com/bytedance/dddwarehouse/eventbus/sql"
	db_executor "github.com/bytedance/dddwarehouse/executor/sql"
	"github.com/bytedance/dddwarehouse/handler"
	db_lock "github.com/bytedance/dddwarehouse/lock/db"
	"github.com/bytedance/dddwarehouse/lock/mem"
	redis_lock "github.com/bytedance/dddwarehouse/lock/redis"
	"github.com/bytedance/dddwarehouse/logger/stdr"
	"github.com/bytedance/dddwarehouse/metrics"
	db_timer "github.com/bytedance/dddwarehouse/timer/sql"
)

const serviceName = "warehouse"

var logger = stdr.NewStdr("warehouse")

func openDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.Database.DSN)
	default:
		dialector = sqlite.Open(cfg.Database.DSN)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "sqlite" {
		// sqlite 只支持单写连接
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

func initPO(db *gorm.DB) error {
	models := append(po.Models(),
		&db_eventbus.EventPO{}, &db_eventbus.ServicePO{},
		&db_timer.TimerJob{}, &db_lock.ResourceLock{},
	)
	return db.AutoMigrate(models...)
}

func newRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
}

func newLock(cfg *config.Config, db *gorm.DB, cli func() *redis.Client) ddd.ILock {
	switch cfg.Lock.Driver {
	case "db":
		return db_lock.NewDBLock(db, cfg.Lock.TTL, db_lock.WithLogger(logger))
	case "redis":
		return redis_lock.NewRedisLock(cli(), cfg.Lock.TTL, redis_lock.WithKeyPrefix(serviceName+":lock:"))
	default:
		return mem.NewMemLock()
	}
}

func newCartStore(cfg *config.Config, cli func() *redis.Client) cart.Store {
	if cfg.Cart.Store == "redis" {
		return cart.NewRedisStore(cli(), cfg.Cart.TTL)
	}
	return cart.NewMemStore(cart.WithTTL(cfg.Cart.TTL))
}

func run(ctx context.Context, cfg *config.Config) error {
	stdr.SetVerbosity(cfg.Verbosity())

	db, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := initPO(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var redisCli *redis.Client
	getRedis := func() *redis.Client {
		if redisCli == nil {
			redisCli = newRedis(cfg)
		}
		return redisCli
	}

	executor := db_executor.NewExecutor(db)
	timer := db_timer.NewDBTimer(serviceName, db,
		db_timer.WithDBProvider(executor.DB),
		db_timer.WithRunInterval(cfg.Scheduler.Interval),
		db_timer.WithRetry(cfg.Scheduler.Interval*10, cfg.Scheduler.RetryLimit),
		db_timer.WithLogger(logger.WithName("timer")),
	)

	opts := []ddd.Option{ddd.WithTimer(timer), ddd.WithLogger(logger.WithName("engine"))}
	var startBus func(ctx context.Context)
	switch cfg.EventBus.Driver {
	case "mem":
		bus := mem_eventbus.NewEventBus(cfg.EventBus.Capacity)
		opts = append(opts, ddd.WithEventBus(bus))
		startBus = bus.Start
	default:
		bus := db_eventbus.NewEventBus(serviceName, db,
			db_eventbus.WithDBProvider(executor.DB),
			db_eventbus.WithRunInterval(cfg.Scheduler.Interval),
			db_eventbus.WithLogger(logger.WithName("eventbus")),
		)
		opts = append(opts, bus.Options()...)
		startBus = bus.Start
	}
	engine := ddd.NewEngine(newLock(cfg, db, getRedis), executor, opts...)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	deps := &command.Deps{
		Products:       repo.NewProductRepo(executor),
		Clients:        repo.NewClientRepo(executor),
		Sectors:        repo.NewSectorRepo(executor),
		Orders:         repo.NewOrderRepo(executor),
		Ordered:        repo.NewOrderedProductRepo(executor),
		Carts:          newCartStore(cfg, getRedis),
		Metrics:        m,
		Logger:         logger.WithName("command"),
		MainSectorName: cfg.MainWarehouseSectorName,
		ClosureDelay:   cfg.ClosureDelay(),
	}
	sectors := service.NewSectorService(engine, deps)
	products := service.NewProductService(engine, deps)
	clients := service.NewClientService(engine, deps)
	orders := service.NewOrderService(engine, deps, dal.NewDAL(executor))

	if err := ensureMainSector(ctx, sectors, cfg); err != nil {
		return err
	}
	if err := event_handler.Register(ctx, engine, orders, deps.Ordered, event_handler.Options{SweepCron: cfg.Cart.SweepCron}); err != nil {
		return fmt.Errorf("register handlers: %w", err)
	}
	startBus(ctx)
	timer.Start(ctx)

	svc := handler.NewWarehouseService(sectors, products, clients, orders)
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.NewMux(svc, m, metrics.Handler(reg), logger.WithName("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("warehouse listening", "addr", cfg.HTTP.Addr, "mainSector", cfg.MainWarehouseSectorName)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type mainSectors interface {
	FindByName(ctx context.Context, name string) (*domain.InventorySector, error)
	Create(ctx context.Context, name string, capacity int) (*domain.InventorySector, error)
}

// ensureMainSector 主库区不存在时按默认容量创建，其余查询错误直接返回
func ensureMainSector(ctx context.Context, sectors mainSectors, cfg *config.Config) error {
	_, err := sectors.FindByName(ctx, cfg.MainWarehouseSectorName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("find main sector: %w", err)
	}
	if _, err := sectors.Create(ctx, cfg.MainWarehouseSectorName, cfg.MainSectorCapacity); err != nil {
		return fmt.Errorf("create main sector: %w", err)
	}
	logger.Info("main sector created", "name", cfg.MainWarehouseSectorName, "capacity", cfg.MainSectorCapacity)
	return nil
}

func main() {
	path := flag.String("config", os.Getenv(config.EnvPrefix+"CONFIG"), "path of the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		logger.Error(err, "load config failed")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg); err != nil {
		logger.Error(err, "warehouse stopped")
		os.Exit(1)
	}
}
