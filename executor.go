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


package dddwarehouse

import (
	"context"
	"fmt"
)

type OpType int8

const (
	OpUnknown OpType = 0
	OpInsert  OpType = 1
	OpUpdate  OpType = 2
	OpDelete  OpType = 3
)

var ErrEntityNotRegister = fmt.Errorf("entity not registered")

type IModel interface {
	GetID() string
}

type Action struct {
	Op OpType

	Models     []IModel // 当前待操作模型
	PrevModels []IModel // Attach 时的快照模型，跟 Models 一一对应，Executor 对两者做差异比对后更新
}

type ITransaction interface {
	// Begin 开启事务，返回带有事务标识的 context，该 context 会原样传递给 Commit 或者 RollBack 方法
	Begin(ctx context.Context) (context.Context, error)
	// Commit 提交事务
	Commit(ctx context.Context) error
	// RollBack 回滚事务
	RollBack(ctx context.Context) error
}

// noTransaction 用于未配置 executor 的场景，事务操作全部为空
type noTransaction struct{}

func (n *noTransaction) Begin(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

func (n *noTransaction) Commit(ctx context.Context) error {
	return nil
}

func (n *noTransaction) RollBack(ctx context.Context) error {
	return nil
}

type IConverter interface {
	// Entity2Model 实体转化为数据模型，parent 为父实体，没有时为 nil
	// 实体未注册返回 ErrEntityNotRegister 错误
	Entity2Model(entity, parent IEntity, op OpType) (IModel, error)
	// Model2Entity 模型转换为实体
	Model2Entity(model IModel, entity IEntity) error
}

// IExecutor 负责聚合根的落库，Stage 在 Main 执行后按登记方式生成 Action
type IExecutor interface {
	ITransaction
	IConverter

	Exec(ctx context.Context, action *Action) error
}
