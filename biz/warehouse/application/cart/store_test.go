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
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	_, ok, err := s.Get(ctx, "c1")
	assert.NoError(t, err)
	assert.False(t, ok)

	c := domain.NewCart("c1", time.Now())
	_ = c.AddLine("p1", 2, time.Now())
	require.NoError(t, s.Put(ctx, c))

	// 存储的是副本
	c.Lines[0].Quantity = 100
	got, ok, err := s.Get(ctx, "c1")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, got.Lines[0].Quantity)

	got.Lines = append(got.Lines, domain.AmountOfProduct{ProductID: "p2", Quantity: 1})
	again, _, _ := s.Get(ctx, "c1")
	assert.Len(t, again.Lines, 1)

	require.NoError(t, s.Delete(ctx, "c1"))
	_, ok, _ = s.Get(ctx, "c1")
	assert.False(t, ok)
}

func TestMemStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemStore(WithTTL(time.Hour), WithClock(func() time.Time { return now }))

	require.NoError(t, s.Put(ctx, domain.NewCart("c1", now)))
	now = now.Add(30 * time.Minute)
	require.NoError(t, s.Put(ctx, domain.NewCart("c2", now)))

	now = now.Add(40 * time.Minute)
	n, err := s.EvictExpired(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())

	_, ok, _ := s.Get(ctx, "c2")
	assert.True(t, ok)
	now = now.Add(time.Hour)
	_, ok, _ = s.Get(ctx, "c2")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemStoreNoTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemStore(WithClock(func() time.Time { return now }))
	require.NoError(t, s.Put(ctx, domain.NewCart("c1", now)))
	now = now.Add(24 * 365 * time.Hour)
	n, _ := s.EvictExpired(ctx)
	assert.Equal(t, 0, n)
	_, ok, _ := s.Get(ctx, "c1")
	assert.True(t, ok)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("WAREHOUSE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("redis not configured, set WAREHOUSE_TEST_REDIS_ADDR")
	}
	ctx := context.Background()
	cli := redis.NewClient(&redis.Options{Addr: addr})
	s := NewRedisStore(cli, time.Minute)
	s.prefix = "test:" + s.prefix

	c := domain.NewCart("c1", time.Now())
	_ = c.AddLine("p1", 2, time.Now())
	c.TotalPrice = decimal.RequireFromString("4.20")
	require.NoError(t, s.Put(ctx, c))

	got, ok, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, c.Lines, got.Lines)
	assert.True(t, c.TotalPrice.Equal(got.TotalPrice))

	ttl, err := cli.TTL(ctx, s.key("c1")).Result()
	assert.NoError(t, err)
	assert.True(t, ttl > 0)

	require.NoError(t, s.Delete(ctx, "c1"))
	_, ok, err = s.Get(ctx, "c1")
	assert.NoError(t, err)
	assert.False(t, ok)
}
