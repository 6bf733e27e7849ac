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

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

const defaultKeyPrefix = "warehouse:cart:"

// RedisStore 购物车以 JSON 保存，过期交给 redis key 的 TTL
type RedisStore struct {
	cli    redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStore(cli redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{cli: cli, prefix: defaultKeyPrefix, ttl: ttl}
}

func (s *RedisStore) key(clientID string) string {
	return s.prefix + clientID
}

func (s *RedisStore) Get(ctx context.Context, clientID string) (*domain.Cart, bool, error) {
	bs, err := s.cli.Get(ctx, s.key(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	c := &domain.Cart{}
	if err := json.Unmarshal(bs, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *RedisStore) Put(ctx context.Context, cart *domain.Cart) error {
	bs, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.cli.Set(ctx, s.key(cart.ClientID), bs, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, clientID string) error {
	return s.cli.Del(ctx, s.key(clientID)).Err()
}

func (s *RedisStore) EvictExpired(ctx context.Context) (int, error) {
	return 0, nil
}
