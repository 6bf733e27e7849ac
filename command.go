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
)

type ICommandMain interface {
	Main(ctx context.Context, repo *Repository) (err error)
}

type ICommandInit interface {
	// Init 会在锁和事务之前执行，可进行数据校验，前置准备工作，可选返回锁ID
	Init(ctx context.Context) (lockKeys []string, err error)
}

type ICommandPostSave interface {
	// PostSave Save 事务完成后回调，可以执行组装返回数据等操作
	PostSave(ctx context.Context, res *Result)
}

// Command 命令的空实现，业务命令内嵌后只需实现 Main
type Command struct {
}

func (c *Command) Init(ctx context.Context) (lockKeys []string, err error) {
	return nil, nil
}

func (c *Command) PostSave(ctx context.Context, res *Result) {
}
