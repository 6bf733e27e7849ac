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

// Package config 加载仓库服务的配置：YAML 文件，再用 WAREHOUSE_* 环境变量覆盖
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron"
	"gopkg.in/yaml.v3"

	"github.com/bytedance/dddwarehouse/logger"
)

const EnvPrefix = "WAREHOUSE_"

type Database struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type Lock struct {
	Driver string        `yaml:"driver"`
	TTL    time.Duration `yaml:"ttl"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Cart struct {
	Store     string        `yaml:"store"`
	TTL       time.Duration `yaml:"ttl"`
	SweepCron string        `yaml:"sweepCron"` // 为空时不清理过期购物车
}

type Scheduler struct {
	Interval   time.Duration `yaml:"interval"`
	RetryLimit int           `yaml:"retryLimit"`
}

// EventBus mem 为进程内通道，sql 为基于数据库的事务消息
type EventBus struct {
	Driver   string `yaml:"driver"`
	Capacity int    `yaml:"capacity"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	OrderClosureDelayInDays int    `yaml:"orderClosureDelayInDays"`
	MainWarehouseSectorName string `yaml:"mainWarehouseSectorName"`
	MainSectorCapacity      int    `yaml:"mainSectorCapacity"` // 启动时主库区不存在则按该容量创建
	LogLevel                string `yaml:"logLevel"`

	Database  Database  `yaml:"database"`
	Lock      Lock      `yaml:"lock"`
	Redis     Redis     `yaml:"redis"`
	Cart      Cart      `yaml:"cart"`
	Scheduler Scheduler `yaml:"scheduler"`
	EventBus  EventBus  `yaml:"eventBus"`
	HTTP      HTTP      `yaml:"http"`
}

func Default() *Config {
	return &Config{
		OrderClosureDelayInDays: 7,
		MainWarehouseSectorName: "MAIN",
		MainSectorCapacity:      1000,
		LogLevel:                "info",
		Database:                Database{Driver: "sqlite", DSN: "warehouse.db"},
		Lock:                    Lock{Driver: "mem", TTL: 10 * time.Second},
		Redis:                   Redis{Addr: "localhost:6379"},
		Cart:                    Cart{Store: "mem", SweepCron: "@every 1m"},
		Scheduler:               Scheduler{Interval: time.Second, RetryLimit: 3},
		EventBus:                EventBus{Driver: "sql", Capacity: 1024},
		HTTP:                    HTTP{Addr: ":8080"},
	}
}

// Verbosity logr 的日志级别
func (c *Config) Verbosity() int {
	return logger.ParseLevel(c.LogLevel)
}

// ClosureDelay 订单确认后自动关闭的延迟
func (c *Config) ClosureDelay() time.Duration {
	return time.Duration(c.OrderClosureDelayInDays) * 24 * time.Hour
}

// Load 读取配置文件，path 为空时只使用默认值与环境变量
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MAIN_SECTOR_NAME": &c.MainWarehouseSectorName,
		"LOG_LEVEL":        &c.LogLevel,
		"DATABASE_DRIVER":  &c.Database.Driver,
		"DATABASE_DSN":     &c.Database.DSN,
		"LOCK_DRIVER":      &c.Lock.Driver,
		"REDIS_ADDR":       &c.Redis.Addr,
		"REDIS_PASSWORD":   &c.Redis.Password,
		"CART_STORE":       &c.Cart.Store,
		"CART_SWEEP_CRON":  &c.Cart.SweepCron,
		"HTTP_ADDR":        &c.HTTP.Addr,
		"EVENTBUS_DRIVER":  &c.EventBus.Driver,
	}
	ints := map[string]*int{
		"ORDER_CLOSURE_DELAY_IN_DAYS": &c.OrderClosureDelayInDays,
		"REDIS_DB":                    &c.Redis.DB,
		"SCHEDULER_RETRY_LIMIT":       &c.Scheduler.RetryLimit,
		"MAIN_SECTOR_CAPACITY":        &c.MainSectorCapacity,
	}
	durations := map[string]*time.Duration{
		"LOCK_TTL":           &c.Lock.TTL,
		"CART_TTL":           &c.Cart.TTL,
		"SCHEDULER_INTERVAL": &c.Scheduler.Interval,
	}

	var errs []error
	for k, p := range strs {
		if v, ok := lookup(EnvPrefix + k); ok {
			*p = strings.TrimSpace(v)
		}
	}
	for k, p := range ints {
		if v, ok := lookup(EnvPrefix + k); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, k, err))
				continue
			}
			*p = n
		}
	}
	for k, p := range durations {
		if v, ok := lookup(EnvPrefix + k); ok {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, k, err))
				continue
			}
			*p = d
		}
	}
	return errors.Join(errs...)
}

func oneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %v, got %q", field, allowed, v)
}

func (c *Config) Validate() error {
	var errs []error
	if c.OrderClosureDelayInDays <= 0 {
		errs = append(errs, fmt.Errorf("orderClosureDelayInDays must be positive, got %d", c.OrderClosureDelayInDays))
	}
	if strings.TrimSpace(c.MainWarehouseSectorName) == "" {
		errs = append(errs, errors.New("mainWarehouseSectorName is required"))
	}
	if c.MainSectorCapacity < 0 {
		errs = append(errs, errors.New("mainSectorCapacity must not be negative"))
	}
	if err := oneOf("logLevel", strings.ToLower(c.LogLevel), "info", "debug"); err != nil {
		errs = append(errs, err)
	}
	if err := oneOf("database.driver", c.Database.Driver, "mysql", "sqlite"); err != nil {
		errs = append(errs, err)
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if err := oneOf("lock.driver", c.Lock.Driver, "mem", "db", "redis"); err != nil {
		errs = append(errs, err)
	}
	if c.Lock.Driver != "mem" && c.Lock.TTL <= 0 {
		errs = append(errs, errors.New("lock.ttl must be positive"))
	}
	if err := oneOf("cart.store", c.Cart.Store, "mem", "redis"); err != nil {
		errs = append(errs, err)
	}
	if c.Cart.TTL < 0 {
		errs = append(errs, errors.New("cart.ttl must not be negative"))
	}
	if c.Cart.SweepCron != "" {
		if _, err := cron.Parse(c.Cart.SweepCron); err != nil {
			errs = append(errs, fmt.Errorf("cart.sweepCron: %w", err))
		}
	}
	if (c.Lock.Driver == "redis" || c.Cart.Store == "redis") && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required by the redis lock or cart store"))
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler.interval must be positive"))
	}
	if err := oneOf("eventBus.driver", c.EventBus.Driver, "mem", "sql"); err != nil {
		errs = append(errs, err)
	}
	if c.EventBus.Driver == "mem" && c.EventBus.Capacity <= 0 {
		errs = append(errs, errors.New("eventBus.capacity must be positive"))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	return errors.Join(errs...)
}
