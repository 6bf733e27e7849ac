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
	"time"

	ddd "github.com/bytedance/dddwarehouse"
	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

// ClosureKey 订单自动关闭任务的定时 key
func ClosureKey(orderID string) string {
	return "order_closure:" + orderID
}

// ScheduleClosure 在 at 时刻投递 OrderClosureDueEvent，同一订单重复调用保留首次的计时
func ScheduleClosure(ctx context.Context, repo *ddd.Repository, orderID string, at time.Time) error {
	return repo.Schedule(ctx, ClosureKey(orderID), at, event.NewOrderClosureDueEvent(orderID))
}

func CancelClosure(ctx context.Context, repo *ddd.Repository, orderID string) error {
	return repo.CancelSchedule(ctx, ClosureKey(orderID))
}
