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


package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-logr/logr"
	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/logger/stdr"
)

var defaultLogger = stdr.NewStdr("resource_lock")

type Options struct {
	Retry         bool
	RetryAttempts uint
	RetryDelay    time.Duration
	Logger        logr.Logger
}

type Option func(opt *Options)

func WithRetry(attempts uint, delay time.Duration) Option {
	return func(opt *Options) {
		opt.Retry = attempts > 1
		opt.RetryAttempts = attempts
		opt.RetryDelay = delay
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(opt *Options) {
		opt.Logger = logger
	}
}

// DBLock 基于唯一索引的分布式锁，持有超过 ttl 的锁视为过期，可被他人抢占
type DBLock struct {
	ttl    time.Duration
	db     *gorm.DB
	logger logr.Logger
	opt    Options
}

func NewDBLock(db *gorm.DB, ttl time.Duration, options ...Option) *DBLock {
	opt := Options{
		Retry:         true,
		RetryAttempts: 50,
		RetryDelay:    100 * time.Millisecond,
		Logger:        defaultLogger,
	}
	for _, o := range options {
		o(&opt)
	}
	return &DBLock{db: db, ttl: ttl, logger: opt.Logger, opt: opt}
}

func (r *DBLock) Lock(ctx context.Context, key string) (keyLock interface{}, err error) {
	if !r.opt.Retry {
		return r.lock(ctx, key)
	}
	// 只针对 ErrEntityLocked 重试
	err = retry.Do(
		func() error {
			keyLock, err = r.lock(ctx, key)
			return err
		},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, dddwarehouse.ErrEntityLocked)
		}),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(r.opt.RetryDelay),
		retry.Attempts(r.opt.RetryAttempts),
		retry.LastErrorOnly(true),
	)
	return
}

func (r *DBLock) lock(ctx context.Context, key string) (interface{}, error) {
	lockerID := xid.New().String()
	var lock ResourceLock
	err := r.db.WithContext(ctx).Model(&ResourceLock{}).
		Where("resource = ?", key).First(&lock).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get resource %s lock, err: %w", key, err)
		}
		l := &ResourceLock{Resource: key, LockerID: lockerID}
		if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || r.exists(ctx, key) {
				return nil, dddwarehouse.ErrEntityLocked
			}
			return nil, fmt.Errorf("failed to create resource %s lock, err: %w", key, err)
		}
		return l, nil
	}
	if time.Since(lock.UpdatedAt) < r.ttl {
		return nil, dddwarehouse.ErrEntityLocked
	}

	// 有记录但是已过期，以原持有者为条件抢占
	res := r.db.WithContext(ctx).Model(&ResourceLock{}).
		Where("resource = ? AND locker_id = ?", key, lock.LockerID).
		UpdateColumns(ResourceLock{UpdatedAt: time.Now(), LockerID: lockerID})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update resource %s lock: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, dddwarehouse.ErrEntityLocked
	}
	r.logger.Info("expired lock taken over", "resource", key, "previous", lock.LockerID)
	lock.LockerID = lockerID
	return &lock, nil
}

func (r *DBLock) exists(ctx context.Context, key string) bool {
	var n int64
	if err := r.db.WithContext(ctx).Model(&ResourceLock{}).Where("resource = ?", key).Count(&n).Error; err != nil {
		return false
	}
	return n > 0
}

func (r *DBLock) UnLock(ctx context.Context, keyLock interface{}) error {
	l := keyLock.(*ResourceLock)
	res := r.db.WithContext(ctx).Where("locker_id = ? and resource = ?", l.LockerID, l.Resource).Delete(&ResourceLock{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected <= 0 {
		return fmt.Errorf("lock record not found (id=%s resource=%s)", l.LockerID, l.Resource)
	}
	return nil
}
