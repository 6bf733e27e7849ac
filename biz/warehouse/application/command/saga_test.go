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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bytedance/dddwarehouse/logger/stdr"
)

func TestSaga(t *testing.T) {
	ctx := context.Background()
	trace := make([]string, 0)
	step := func(name string, err error) (func(ctx context.Context) error, func(ctx context.Context) error) {
		return func(ctx context.Context) error {
				trace = append(trace, name)
				return err
			}, func(ctx context.Context) error {
				trace = append(trace, "undo-"+name)
				return nil
			}
	}

	boom := fmt.Errorf("boom")
	a, ua := step("a", nil)
	b, _ := step("b", nil)
	c, uc := step("c", boom)
	err := NewSaga("confirm", stdr.NewStdr("test")).
		Step("a", a, ua).
		Step("b", b, nil).
		Step("c", c, uc).
		Run(ctx)

	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "confirm: c: boom")
	assert.Equal(t, []string{"a", "b", "c", "undo-a"}, trace)

	trace = trace[:0]
	assert.NoError(t, NewSaga("ok", stdr.NewStdr("test")).Step("a", a, ua).Step("b", b, nil).Run(ctx))
	assert.Equal(t, []string{"a", "b"}, trace)
}

func TestSagaCompensateError(t *testing.T) {
	undoErr := fmt.Errorf("undo failed")
	err := NewSaga("s", stdr.NewStdr("test")).
		Step("a", func(ctx context.Context) error { return nil }, func(ctx context.Context) error { return undoErr }).
		Step("b", func(ctx context.Context) error { return fmt.Errorf("fail") }, nil).
		Run(context.Background())
	assert.ErrorIs(t, err, undoErr)
}
