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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemLock_SameKeyExclusive(t *testing.T) {
	ctx := context.Background()
	l := NewMemLock()

	var mu sync.Mutex
	inside, maxInside := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			kl, err := l.Lock(ctx, "cart:1")
			assert.NoError(t, err)

			mu.Lock()
			inside++
			if inside > maxInside {
				maxInside = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()

			assert.NoError(t, l.UnLock(ctx, kl))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
	assert.Equal(t, 0, l.Len())
}

func TestMemLock_DifferentKeysIndependent(t *testing.T) {
	ctx := context.Background()
	l := NewMemLock()

	a, err := l.Lock(ctx, "sector:1")
	assert.NoError(t, err)
	b, err := l.Lock(ctx, "sector:2")
	assert.NoError(t, err)
	assert.Equal(t, 2, l.Len())

	assert.NoError(t, l.UnLock(ctx, a))
	assert.NoError(t, l.UnLock(ctx, b))
	assert.Equal(t, 0, l.Len())
}

func TestMemLock_ContextCancel(t *testing.T) {
	l := NewMemLock()
	held, err := l.Lock(context.Background(), "order:1")
	assert.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "order:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	assert.NoError(t, l.UnLock(context.Background(), held))
	assert.Equal(t, 0, l.Len())
}
