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

package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/bytedance/dddwarehouse/biz/warehouse/application/cart"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/logger/stdr"
	"github.com/bytedance/dddwarehouse/metrics"
)

var defaultLogger = stdr.NewStdr("warehouse_command")

// Deps 命令执行所需的仓储与配置
type Deps struct {
	Products domain.ProductRepository
	Clients  domain.ClientRepository
	Sectors  domain.SectorRepository
	Orders   domain.OrderRepository
	Ordered  domain.OrderedProductRepository
	Carts    cart.Store
	Metrics  *metrics.Metrics
	Logger   logr.Logger
	Now      func() time.Time

	MainSectorName string
	ClosureDelay   time.Duration
}

func (d *Deps) logger() logr.Logger {
	if d.Logger.GetSink() == nil {
		return defaultLogger
	}
	return d.Logger
}

func (d *Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// mainSectorID 锁之前解析主库区 ID，执行时再按 ID 重新读取
func (d *Deps) mainSectorID(ctx context.Context) (string, error) {
	s, err := d.Sectors.FindByName(ctx, d.MainSectorName)
	if errors.Is(err, domain.ErrNotFound) {
		// 主库区缺失属于配置问题，不能当作业务实体不存在
		return "", fmt.Errorf("main sector %q missing: %w", d.MainSectorName, domain.ErrInvalidState)
	}
	if err != nil {
		return "", fmt.Errorf("main sector: %w", err)
	}
	return s.ID, nil
}

func CartLockKey(clientID string) string {
	return "cart:" + clientID
}

func OrderLockKey(orderID string) string {
	return "order:" + orderID
}

func SectorLockKey(sectorID string) string {
	return "sector:" + sectorID
}

func ProductLockKey(code string) string {
	return "product:" + code
}
