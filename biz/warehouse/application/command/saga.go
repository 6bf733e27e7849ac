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

	"github.com/go-logr/logr"
)

type SagaStep struct {
	Name       string
	Do         func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Saga 顺序执行步骤，失败时按相反顺序补偿已完成的步骤
type Saga struct {
	name   string
	steps  []SagaStep
	logger logr.Logger
}

func NewSaga(name string, logger logr.Logger) *Saga {
	return &Saga{name: name, logger: logger}
}

func (s *Saga) Step(name string, do, compensate func(ctx context.Context) error) *Saga {
	s.steps = append(s.steps, SagaStep{Name: name, Do: do, Compensate: compensate})
	return s
}

func (s *Saga) Run(ctx context.Context) error {
	for i, step := range s.steps {
		err := step.Do(ctx)
		if err == nil {
			continue
		}
		s.logger.Info("saga step failed", "saga", s.name, "step", step.Name, "err", err.Error())
		errs := []error{fmt.Errorf("%s: %s: %w", s.name, step.Name, err)}
		for j := i - 1; j >= 0; j-- {
			done := s.steps[j]
			if done.Compensate == nil {
				continue
			}
			if cerr := done.Compensate(ctx); cerr != nil {
				errs = append(errs, fmt.Errorf("%s: compensate %s: %w", s.name, done.Name, cerr))
			}
		}
		return errors.Join(errs...)
	}
	return nil
}
