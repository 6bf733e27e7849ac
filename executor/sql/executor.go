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


package sql

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	ddd "github.com/bytedance/dddwarehouse"
)

var ErrInvalidDB = fmt.Errorf("invalid db")
var ErrNoTransaction = fmt.Errorf("no transaction")

var schemaCache = &sync.Map{}

type contextKey struct{}

type txHandle struct {
	tx     *gorm.DB
	joined bool // 外层已有事务，本层只复用不提交
}

// Executor 基于 gorm 的事务执行器，事务保存在 context 中，仓储通过 DB(ctx) 取得当前连接
type Executor struct {
	db *gorm.DB
}

func NewExecutor(db *gorm.DB) *Executor {
	return &Executor{db: db}
}

func (e *Executor) Begin(ctx context.Context) (context.Context, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.db == nil {
		return ctx, ErrInvalidDB
	}
	if h, ok := ctx.Value(contextKey{}).(*txHandle); ok {
		return context.WithValue(ctx, contextKey{}, &txHandle{tx: h.tx, joined: true}), nil
	}

	tx := e.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return ctx, fmt.Errorf("start transation failed, err=%s", tx.Error)
	}
	return context.WithValue(ctx, contextKey{}, &txHandle{tx: tx}), nil
}

func (e *Executor) Commit(ctx context.Context) error {
	if e.db == nil {
		return ErrInvalidDB
	}
	h, ok := ctx.Value(contextKey{}).(*txHandle)
	if !ok {
		return ErrNoTransaction
	}
	if h.joined {
		return nil
	}
	return h.tx.Commit().Error
}

func (e *Executor) RollBack(ctx context.Context) error {
	if e.db == nil {
		return ErrInvalidDB
	}
	h, ok := ctx.Value(contextKey{}).(*txHandle)
	if !ok {
		return ErrNoTransaction
	}
	if h.joined {
		return nil
	}
	return h.tx.Rollback().Error
}

// DB 返回 ctx 中的事务连接，没有事务时返回普通连接
func (e *Executor) DB(ctx context.Context) *gorm.DB {
	if h, ok := ctx.Value(contextKey{}).(*txHandle); ok {
		return h.tx
	}
	return e.db.WithContext(ctx)
}

func (e *Executor) Entity2Model(entity, parent ddd.IEntity, op ddd.OpType) (ddd.IModel, error) {
	c, ok := entity2ModelRegistry[realType(entity)]
	if !ok {
		return nil, ddd.ErrEntityNotRegister
	}
	return c.entity2Model(entity, parent, op)
}

func (e *Executor) Model2Entity(model ddd.IModel, entity ddd.IEntity) error {
	c, ok := entity2ModelRegistry[realType(entity)]
	if !ok {
		return ddd.ErrEntityNotRegister
	}
	return c.model2Entity(model, entity)
}

// Exec 执行 Stage 生成的落库动作，处于事务中时使用事务连接
func (e *Executor) Exec(ctx context.Context, a *ddd.Action) error {
	if e.db == nil {
		return ErrInvalidDB
	}
	f, ok := opMap[a.Op]
	if !ok {
		return fmt.Errorf("unsupported op %d", a.Op)
	}
	if len(a.Models) == 0 {
		return nil
	}
	return f(e.DB(ctx), a)
}

// InTransaction 判断 ctx 是否处于事务中
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(contextKey{}).(*txHandle)
	return ok
}
