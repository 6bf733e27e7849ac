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


package redis

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

type Options struct {
	KeyPrefix     string
	RetryInterval time.Duration
	RetryLimit    int
}

type Option func(opt *Options)

func WithKeyPrefix(prefix string) Option {
	return func(opt *Options) {
		opt.KeyPrefix = prefix
	}
}

func WithRetry(interval time.Duration, limit int) Option {
	return func(opt *Options) {
		opt.RetryInterval = interval
		opt.RetryLimit = limit
	}
}

type RedisLock struct {
	ttl time.Duration
	cli *redislock.Client
	opt Options
}

func NewRedisLock(cli *redis.Client, ttl time.Duration, options ...Option) *RedisLock {
	// 默认固定间隔重试，最大重试30次
	opt := Options{
		RetryInterval: 100 * time.Millisecond,
		RetryLimit:    30,
	}
	for _, o := range options {
		o(&opt)
	}
	return &RedisLock{cli: redislock.New(cli), ttl: ttl, opt: opt}
}

func (r *RedisLock) Lock(ctx context.Context, key string) (keyLock interface{}, err error) {
	return r.cli.Obtain(ctx, r.opt.KeyPrefix+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.opt.RetryInterval), r.opt.RetryLimit),
	})
}

func (r *RedisLock) UnLock(ctx context.Context, keyLock interface{}) error {
	l := keyLock.(*redislock.Lock)
	return l.Release(ctx)
}
