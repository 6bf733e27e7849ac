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


package sql

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/robfig/cron"
	"gorm.io/gorm"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/logger"
	"github.com/bytedance/dddwarehouse/logger/stdr"
)

const retryInterval = time.Second * 3
const retryLimit = 5
const runInterval = time.Millisecond * 100

const cleanCron = "0 0 2 * * *"

const retentionTime = 48 * time.Hour
const limitPerRun = 100 // 单次 HandleEvents 处理的事件数

var ErrServiceNotCreate = fmt.Errorf("service not create")

var defaultLogger = stdr.NewStdr("sql_eventbus")

type IRetryStrategy interface {
	// Next 获取下一次重试的策略，返回 nil 表示不再重试
	// 当 RetryInfo.RetryCount == 0 表示初始化状态，通过 Next 获取第一次重试信息
	Next(info *RetryInfo, now time.Time) *RetryInfo
}

type IntervalRetry struct {
	Interval time.Duration
	Limit    int
}

func (c *IntervalRetry) Next(info *RetryInfo, now time.Time) *RetryInfo {
	if info.RetryCount >= c.Limit {
		return nil
	}
	return &RetryInfo{
		ID:         info.ID,
		RetryCount: info.RetryCount + 1,
		RetryTime:  now.Add(c.Interval),
	}
}

type Options struct {
	RetryLimit    int           // 重试次数
	RetryInterval time.Duration // 重试间隔
	RunInterval   time.Duration // 轮询间隔
	CleanCron     string        // 清理周期
	RetentionTime time.Duration // 消费完成的event在db里的保留时间
	LimitPerRun   int           // 每次轮询最大的处理条数
	Logger        logr.Logger
	Now           func() time.Time
	// DB 获取当前连接，ctx 中携带事务时应返回事务连接，事件与业务数据同时提交
	DB func(ctx context.Context) *gorm.DB
}

type Option func(opt *Options)

func WithRetry(interval time.Duration, limit int) Option {
	return func(opt *Options) {
		opt.RetryInterval = interval
		opt.RetryLimit = limit
	}
}

func WithRunInterval(d time.Duration) Option {
	return func(opt *Options) {
		opt.RunInterval = d
	}
}

func WithRetention(d time.Duration) Option {
	return func(opt *Options) {
		opt.RetentionTime = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(opt *Options) {
		opt.Now = now
	}
}

func WithDBProvider(f func(ctx context.Context) *gorm.DB) Option {
	return func(opt *Options) {
		opt.DB = f
	}
}

func WithLogger(l logr.Logger) Option {
	return func(opt *Options) {
		opt.Logger = l
	}
}

// EventBus 基于 outbox 表的事件总线，事件在业务事务内写入，由轮询协程投递
type EventBus struct {
	serviceName   string
	db            *gorm.DB
	logger        logr.Logger
	opt           Options
	retryStrategy IRetryStrategy

	cb        ddd.DomainEventHandler
	cleanCron *cron.Cron
	once      sync.Once
	mu        sync.Mutex
}

func NewEventBus(serviceName string, db *gorm.DB, options ...Option) *EventBus {
	if len(serviceName) == 0 || len(serviceName) > 64 {
		panic("serviceName must be 1 to 64 chars")
	}

	opt := Options{
		RetryLimit:    retryLimit,
		RetryInterval: retryInterval,
		RunInterval:   runInterval,
		CleanCron:     cleanCron,
		RetentionTime: retentionTime,
		LimitPerRun:   limitPerRun,
		Logger:        defaultLogger,
		Now:           time.Now,
	}
	for _, o := range options {
		o(&opt)
	}
	if _, err := cron.Parse(opt.CleanCron); err != nil {
		panic(fmt.Sprintf("cron expression %s is invalid", opt.CleanCron))
	}
	if opt.RetentionTime < 0 {
		panic(fmt.Sprintf("retentionTime %v can not be negative", opt.RetentionTime))
	}
	if opt.DB == nil {
		opt.DB = func(ctx context.Context) *gorm.DB {
			return db.WithContext(ctx)
		}
	}

	eb := &EventBus{
		serviceName:   serviceName,
		db:            db,
		logger:        opt.Logger,
		retryStrategy: &IntervalRetry{Interval: opt.RetryInterval, Limit: opt.RetryLimit},
		opt:           opt,
		cleanCron:     cron.New(),
	}
	if err := eb.initService(context.Background()); err != nil {
		eb.logger.Error(err, "init eventbus service failed", "service", serviceName)
	}
	return eb
}

// Options 返回引擎选项，事务提交后立即触发一次投递
func (e *EventBus) Options() []ddd.Option {
	return []ddd.Option{
		ddd.WithEventBus(e),
		ddd.WithPostSave(e.onPostSave),
	}
}

func (e *EventBus) onPostSave(ctx context.Context, res *ddd.Result) {
	if len(res.Events) == 0 {
		return
	}
	go func() {
		if err := e.HandleEvents(context.Background()); err != nil {
			e.logger.Error(err, "handle events after save failed")
		}
	}()
}

func (e *EventBus) Dispatch(ctx context.Context, events ...*ddd.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	pos := make([]*EventPO, len(events))
	for i, evt := range events {
		pos[i] = eventPersist(evt)
	}
	return e.opt.DB(ctx).Create(pos).Error
}

// DispatchTx 事件写入 ctx 中的事务，与业务数据一起提交或回滚
func (e *EventBus) DispatchTx(ctx context.Context, events ...*ddd.DomainEvent) error {
	return e.Dispatch(ctx, events...)
}

func (e *EventBus) RegisterEventHandler(cb ddd.DomainEventHandler) {
	e.cb = cb
}

// initService 新服务从当前最新事件之后开始消费
func (e *EventBus) initService(ctx context.Context) error {
	var maxID int64
	if err := e.db.WithContext(ctx).Model(&EventPO{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return err
	}
	service := &ServicePO{}
	return e.db.WithContext(ctx).Where(ServicePO{Name: e.serviceName}).
		Attrs(ServicePO{Offset: maxID}).FirstOrCreate(service).Error
}

func (e *EventBus) getService(ctx context.Context) (*ServicePO, error) {
	service := &ServicePO{}
	if err := e.db.WithContext(ctx).Where("name = ?", e.serviceName).First(service).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServiceNotCreate
		}
		return nil, err
	}
	return service, nil
}

func (e *EventBus) getScanEvents(ctx context.Context, service *ServicePO) ([]*EventPO, error) {
	eventPOs := make([]*EventPO, 0)
	if err := e.db.WithContext(ctx).Where("id > ?", service.Offset).
		Order("id").Limit(e.opt.LimitPerRun).Find(&eventPOs).Error; err != nil {
		return nil, err
	}
	return eventPOs, nil
}

func (e *EventBus) getRetryEvents(ctx context.Context, service *ServicePO, now time.Time) ([]*EventPO, error) {
	retryIDs := make([]int64, 0)
	for _, info := range service.Retry {
		if !info.RetryTime.After(now) {
			retryIDs = append(retryIDs, info.ID)
		}
	}
	if len(retryIDs) == 0 {
		return nil, nil
	}

	eventPOs := make([]*EventPO, 0)
	if err := e.db.WithContext(ctx).Where("id in ?", retryIDs).Order("id").Find(&eventPOs).Error; err != nil {
		return nil, err
	}
	return eventPOs, nil
}

func (e *EventBus) doRetryStrategy(service *ServicePO, attempted map[int64]bool, failedIDs []int64, now time.Time) (retry, failed []*RetryInfo) {
	retryInfos := make(map[int64]*RetryInfo)
	for _, info := range service.Retry {
		retryInfos[info.ID] = info
		// 未到重试时间的保持不变
		if !attempted[info.ID] {
			retry = append(retry, info)
		}
	}

	for _, id := range failedIDs {
		info := retryInfos[id]
		if info == nil {
			info = &RetryInfo{ID: id}
		}

		if newInfo := e.retryStrategy.Next(info, now); newInfo != nil {
			retry = append(retry, newInfo)
		} else {
			failed = append(failed, info)
		}
	}
	return
}

// HandleEvents 投递一批新事件与到期的重试事件，投递期间不持有事务，消费位置通过版本号条件更新
func (e *EventBus) HandleEvents(ctx context.Context) error {
	if e.cb == nil {
		return ddd.ErrNoEventBusFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opt.Now()
	service, err := e.getService(ctx)
	if err != nil {
		return err
	}
	scanEvents, err := e.getScanEvents(ctx, service)
	if err != nil {
		return err
	}
	retryEvents, err := e.getRetryEvents(ctx, service, now)
	if err != nil {
		return err
	}
	if len(scanEvents) == 0 && len(retryEvents) == 0 {
		return nil
	}

	attempted := make(map[int64]bool)
	failedIDs := make([]int64, 0)
	for _, po := range append(retryEvents, scanEvents...) {
		attempted[po.ID] = true
		if err := e.cb(ctx, po.Event); err != nil {
			e.logger.Error(err, "event handler failed", "eventID", po.EventID, "type", po.EventType)
			failedIDs = append(failedIDs, po.ID)
		}
	}

	retry, failed := e.doRetryStrategy(service, attempted, failedIDs, now)
	update := &ServicePO{
		Retry:   retry,
		Failed:  append(service.Failed, failed...),
		Offset:  service.Offset,
		Version: service.Version + 1,
	}
	if len(scanEvents) > 0 {
		update.Offset = scanEvents[len(scanEvents)-1].ID
	}
	res := e.db.WithContext(ctx).Model(&ServicePO{}).
		Where("name = ? AND version = ?", e.serviceName, service.Version).
		Select("retry", "failed", "offset", "version", "updated_at").
		Updates(update)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		e.logger.V(logger.LevelDebug).Info("eventbus offset moved by others", "service", e.serviceName)
	}
	return nil
}

// FailedEvents 超过重试次数的事件
func (e *EventBus) FailedEvents(ctx context.Context) ([]*RetryInfo, error) {
	service, err := e.getService(ctx)
	if err != nil {
		return nil, err
	}
	return service.Failed, nil
}

func (e *EventBus) cleanEvents(ctx context.Context) error {
	var services []*ServicePO
	if err := e.db.WithContext(ctx).Find(&services).Error; err != nil {
		return err
	}
	if len(services) == 0 {
		return nil
	}
	keep := map[int64]bool{}
	minOffset := services[0].Offset
	for _, service := range services {
		for _, si := range service.Retry {
			keep[si.ID] = true
		}
		for _, si := range service.Failed {
			keep[si.ID] = true
		}
		if service.Offset < minOffset {
			minOffset = service.Offset
		}
	}

	// 只清理所有服务都已消费且超过保留时间的事件
	ids := make([]int64, 0)
	if err := e.db.WithContext(ctx).Model(&EventPO{}).
		Where("id <= ? AND created_at < ?", minOffset, e.opt.Now().Add(-e.opt.RetentionTime)).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	toDelete := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !keep[id] {
			toDelete = append(toDelete, id)
		}
	}
	if len(toDelete) == 0 {
		return nil
	}
	e.logger.Info("clean events", "count", len(toDelete))
	return e.db.WithContext(ctx).Where("id in ?", toDelete).Delete(&EventPO{}).Error
}

func (e *EventBus) Start(ctx context.Context) {
	run := func() {
		ticker := time.NewTicker(e.opt.RunInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.cleanCron.Stop()
				return
			case <-ticker.C:
				if err := e.HandleEvents(ctx); err != nil {
					if errors.Is(err, ErrServiceNotCreate) {
						_ = e.initService(ctx)
					}
					e.logger.Error(err, "handler events err")
				}
			}
		}
	}
	// 确保只启动一次
	e.once.Do(func() {
		if err := e.cleanCron.AddFunc(e.opt.CleanCron, func() {
			if err := e.cleanEvents(ctx); err != nil {
				e.logger.Error(err, "clean events err")
			}
		}); err != nil {
			panic(err)
		}
		e.cleanCron.Start()
		go run()
	})
}
