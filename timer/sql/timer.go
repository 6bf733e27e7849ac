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
	"sync"
	"time"

	"github.com/go-logr/logr"
	"gorm.io/gorm"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/logger"
	"github.com/bytedance/dddwarehouse/logger/stdr"
)

const defaultInterval = time.Second

var defaultLogger = stdr.NewStdr("db_timer")

type Options struct {
	RunInterval    time.Duration // 轮询间隔
	RetryInterval  time.Duration // 单次任务失败后的重试间隔
	RetryLimit     int           // 单次任务最大重试次数，超过后置为失败
	RunningTimeout time.Duration // 执行中状态超过该时长视为执行者已退出，任务重新入队
	Logger         logr.Logger
	Now            func() time.Time
	// DB 获取当前连接，ctx 中携带事务时应返回事务连接，使定时与业务数据同时提交
	DB func(ctx context.Context) *gorm.DB
}

type Option func(opt *Options)

func WithRunInterval(d time.Duration) Option {
	return func(opt *Options) {
		opt.RunInterval = d
	}
}

func WithRetry(interval time.Duration, limit int) Option {
	return func(opt *Options) {
		opt.RetryInterval = interval
		opt.RetryLimit = limit
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

// DBTimer 基于数据库表的持久化定时器，多实例部署时通过条件更新抢占任务
type DBTimer struct {
	service string
	db      *gorm.DB
	cb      ddd.TimerHandler
	opt     Options
	logger  logr.Logger
	once    sync.Once
}

func NewDBTimer(service string, db *gorm.DB, opts ...Option) *DBTimer {
	if service == "" {
		panic("service name is required")
	}
	opt := Options{
		RunInterval:    defaultInterval,
		RetryInterval:  time.Minute,
		RetryLimit:     5,
		RunningTimeout: 5 * time.Minute,
		Logger:         defaultLogger,
		Now:            time.Now,
	}
	for _, o := range opts {
		o(&opt)
	}
	if opt.DB == nil {
		opt.DB = func(ctx context.Context) *gorm.DB {
			return db.WithContext(ctx)
		}
	}
	return &DBTimer{
		service: service,
		db:      db,
		opt:     opt,
		logger:  opt.Logger,
	}
}

func (t *DBTimer) RunCron(ctx context.Context, key, cronExp string, data []byte) error {
	newTimer := TimerJob{
		Service: t.service,
		Key:     key,
		Cron:    cronExp,
		Payload: data,
		Status:  TimerToRun,
	}
	return t.run(ctx, &newTimer)
}

func (t *DBTimer) RunOnce(ctx context.Context, key string, runTime time.Time, data []byte) error {
	if runTime.Before(t.opt.Now()) {
		return ErrTimerOverdue
	}

	newTimer := TimerJob{
		Service:  t.service,
		Key:      key,
		NextTime: runTime,
		Payload:  data,
		Status:   TimerToRun,
	}
	return t.run(ctx, &newTimer)
}

// Cancel 删除尚未开始执行的定时
func (t *DBTimer) Cancel(ctx context.Context, key string) error {
	return t.opt.DB(ctx).Unscoped().
		Where("service = ? AND `key` = ? AND status <> ?", t.service, key, TimerRunning).
		Delete(&TimerJob{}).Error
}

// Get 查询定时任务，不存在时返回 gorm.ErrRecordNotFound
func (t *DBTimer) Get(ctx context.Context, key string) (*TimerJob, error) {
	job := &TimerJob{}
	if err := t.opt.DB(ctx).Where("service = ? AND `key` = ?", t.service, key).First(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (t *DBTimer) run(ctx context.Context, job *TimerJob) error {
	if err := job.Reset(t.opt.Now()); err != nil {
		return err
	}
	// key 已存在时保留原有计时
	return t.opt.DB(ctx).Where(TimerJob{
		Service: t.service,
		Key:     job.Key,
	}).Attrs(job).FirstOrCreate(&TimerJob{}).Error
}

func (t *DBTimer) RegisterTimerHandler(cb ddd.TimerHandler) {
	t.cb = cb
}

func (t *DBTimer) recoverStale(ctx context.Context, now time.Time) {
	res := t.db.WithContext(ctx).Model(&TimerJob{}).
		Where("service = ? AND status = ? AND updated_at < ?", t.service, TimerRunning, now.Add(-t.opt.RunningTimeout)).
		Updates(map[string]interface{}{"status": TimerToRun, "updated_at": now})
	if res.Error != nil {
		t.logger.Error(res.Error, "recover stale timer jobs failed")
	} else if res.RowsAffected > 0 {
		t.logger.Info("stale timer jobs requeued", "count", res.RowsAffected)
	}
}

// claim 以条件更新抢占任务，返回 false 表示已被其他实例处理
func (t *DBTimer) claim(ctx context.Context, job *TimerJob, now time.Time) (bool, error) {
	res := t.db.WithContext(ctx).Model(&TimerJob{}).
		Where("id = ? AND status = ?", job.ID, TimerToRun).
		Updates(map[string]interface{}{"status": TimerRunning, "updated_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *DBTimer) finish(ctx context.Context, job *TimerJob, now time.Time) error {
	return t.db.WithContext(ctx).Model(&TimerJob{}).
		Where("id = ? AND status = ?", job.ID, TimerRunning).
		Updates(map[string]interface{}{
			"status":     job.Status,
			"next_time":  job.NextTime,
			"retries":    job.Retries,
			"msg":        job.Msg,
			"updated_at": now,
		}).Error
}

// RunDue 执行所有到期的任务，Start 的轮询协程会周期调用
func (t *DBTimer) RunDue(ctx context.Context) error {
	if t.cb == nil {
		return ddd.ErrNoEventTimerFound
	}
	now := t.opt.Now()
	t.recoverStale(ctx, now)

	jobs := make([]*TimerJob, 0)
	if err := t.db.WithContext(ctx).Where(
		"service = ? and next_time <= ? and status = ?", t.service, now, TimerToRun,
	).Order("next_time").Find(&jobs).Error; err != nil {
		return err
	}

	for _, job := range jobs {
		ok, err := t.claim(ctx, job, now)
		if err != nil {
			t.logger.Error(err, "claim timer job failed", "jobID", job.ID)
			continue
		}
		if !ok {
			t.logger.V(logger.LevelDebug).Info("timer job taken by others", "jobID", job.ID)
			continue
		}

		if err := t.cb(ctx, job.Key, job.Cron, job.Payload); err != nil {
			t.logger.Error(err, "timer job callback failed", "jobID", job.ID, "key", job.Key, "retries", job.Retries)
			job.Retry(t.opt.Now(), err, t.opt.RetryInterval, t.opt.RetryLimit)
		} else if err := job.Next(t.opt.Now()); err != nil {
			job.Close(err)
		}

		if err := t.finish(ctx, job, t.opt.Now()); err != nil {
			t.logger.Error(err, "save timer job failed", "jobID", job.ID)
		}
	}
	return nil
}

func (t *DBTimer) Start(ctx context.Context) {
	t.once.Do(func() {
		go func() {
			ticker := time.NewTicker(t.opt.RunInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := t.RunDue(ctx); err != nil && !errors.Is(err, context.Canceled) {
						t.logger.Error(err, "handle job failed")
					}
				}
			}
		}()
	})
}
