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

package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/config"
)

type stubSectors struct {
	findErr error
	created []string
}

func (s *stubSectors) FindByName(ctx context.Context, name string) (*domain.InventorySector, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return &domain.InventorySector{ID: "s1", Name: name}, nil
}

func (s *stubSectors) Create(ctx context.Context, name string, capacity int) (*domain.InventorySector, error) {
	s.created = append(s.created, name)
	return &domain.InventorySector{ID: "s1", Name: name, Capacity: capacity}, nil
}

func TestEnsureMainSector(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	existing := &stubSectors{}
	assert.NoError(t, ensureMainSector(ctx, existing, cfg))
	assert.Empty(t, existing.created)

	missing := &stubSectors{findErr: domain.ErrNotFound}
	assert.NoError(t, ensureMainSector(ctx, missing, cfg))
	assert.Equal(t, []string{cfg.MainWarehouseSectorName}, missing.created)

	// 数据库异常不能当作库区不存在
	broken := &stubSectors{findErr: errors.New("connection refused")}
	assert.ErrorContains(t, ensureMainSector(ctx, broken, cfg), "connection refused")
	assert.Empty(t, broken.created)
}
