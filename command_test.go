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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bytedance/dddwarehouse/lock/mem"
)

type testReturnCommand struct {
	Command

	name     string
	postSave string
}

func (c *testReturnCommand) Init(ctx context.Context) (lockKeys []string, err error) {
	if c.name == "" {
		return nil, ErrBreak
	}
	return []string{"item:" + c.name}, nil
}

func (c *testReturnCommand) Main(ctx context.Context, repo *Repository) error {
	item := &stockItem{Name: c.name}
	repo.Add(item)
	repo.Output(item.GetID())
	return nil
}

func (c *testReturnCommand) PostSave(ctx context.Context, res *Result) {
	c.postSave = res.Output.(string)
}

func TestCommand_Return(t *testing.T) {
	ctx := context.Background()
	cmd := &testReturnCommand{name: "bolt"}
	res := NewEngine(mem.NewMemLock(), &recordTx{}).Run(ctx, cmd)
	assert.NoError(t, res.Error)
	assert.NotEmpty(t, res.Output)
	assert.Equal(t, res.Output, cmd.postSave)
}

func TestCommand_InitBreak(t *testing.T) {
	ctx := context.Background()
	tx := &recordTx{}
	res := NewEngine(mem.NewMemLock(), tx).Run(ctx, &testReturnCommand{})
	assert.NoError(t, res.Error)
	assert.True(t, res.Break)
	assert.Equal(t, 0, tx.begins)
}
