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
	"sync"
	"time"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
)

// Store 保存每个客户确认前的购物车，同一客户的读写由调用方加锁
type Store interface {
	Get(ctx context.Context, clientID string) (*domain.Cart, bool, error)
	Put(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, clientID string) error
	// EvictExpired 清理过期购物车，返回清理数量；自带过期机制的实现返回 0
	EvictExpired(ctx context.Context) (int, error)
}

type MemOption func(s *MemStore)

// WithTTL 购物车闲置超过 ttl 后被清理，0 表示永不过期
func WithTTL(ttl time.Duration) MemOption {
	return func(s *MemStore) {
		s.ttl = ttl
	}
}

func WithClock(now func() time.Time) MemOption {
	return func(s *MemStore) {
		s.now = now
	}
}

type memEntry struct {
	cart     *domain.Cart
	expireAt time.Time
}

type MemStore struct {
	mu    sync.Mutex
	carts map[string]*memEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		carts: map[string]*memEntry{},
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *MemStore) expired(e *memEntry, now time.Time) bool {
	return s.ttl > 0 && !now.Before(e.expireAt)
}

func (s *MemStore) Get(ctx context.Context, clientID string) (*domain.Cart, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.carts[clientID]
	if !ok {
		return nil, false, nil
	}
	if s.expired(e, s.now()) {
		delete(s.carts, clientID)
		return nil, false, nil
	}
	return e.cart.Clone(), true, nil
}

func (s *MemStore) Put(ctx context.Context, cart *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.carts[cart.ClientID] = &memEntry{cart: cart.Clone(), expireAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemStore) Delete(ctx context.Context, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.carts, clientID)
	return nil
}

func (s *MemStore) EvictExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for id, e := range s.carts {
		if s.expired(e, now) {
			delete(s.carts, id)
			n++
		}
	}
	return n, nil
}

func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
