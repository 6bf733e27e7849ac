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


package mem

import (
	"context"
	"sync"
)

type keyEntry struct {
	ch   chan struct{}
	refs int
}

type keyLock struct {
	key   string
	entry *keyEntry
}

// MemLock 进程内的按 key 互斥锁，同一个 key 同时只有一个持有者，不同 key 互不影响
type MemLock struct {
	mu    sync.Mutex
	locks map[string]*keyEntry
}

func NewMemLock() *MemLock {
	return &MemLock{locks: map[string]*keyEntry{}}
}

func (l *MemLock) acquireEntry(key string) *keyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &keyEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *MemLock) releaseEntry(key string, e *keyEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Lock 阻塞直到获得 key 的锁或 ctx 结束
func (l *MemLock) Lock(ctx context.Context, key string) (interface{}, error) {
	e := l.acquireEntry(key)
	select {
	case e.ch <- struct{}{}:
		return &keyLock{key: key, entry: e}, nil
	case <-ctx.Done():
		l.releaseEntry(key, e)
		return nil, ctx.Err()
	}
}

func (l *MemLock) UnLock(ctx context.Context, lock interface{}) error {
	kl := lock.(*keyLock)
	<-kl.entry.ch
	l.releaseEntry(kl.key, kl.entry)
	return nil
}

// Len 当前被持有或等待中的 key 数量
func (l *MemLock) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
