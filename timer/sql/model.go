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
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron"
)

var ErrTimerOverdue = fmt.Errorf("timer overdue")

type TimerStatus int

const (
	TimerToRun    TimerStatus = 1
	TimerFinished TimerStatus = 2
	TimerFailed   TimerStatus = 3
	TimerRunning  TimerStatus = 4
)

type TimerJob struct {
	ID        int64       `gorm:"primaryKey;column:id;autoIncrement"`
	Service   string      `gorm:"column:service;type:varchar(64);uniqueIndex:idx_service_key;not null"`
	Key       string      `gorm:"column:key;type:varchar(128);uniqueIndex:idx_service_key;not null"`
	Cron      string      `gorm:"column:cron;type:varchar(64);null"`
	NextTime  time.Time   `gorm:"column:next_time;type:datetime;index;not null"`
	Status    TimerStatus `gorm:"column:status;type:tinyint"`
	Retries   int         `gorm:"column:retries"`
	Msg       string      `gorm:"column:msg;type:varchar(256)"`
	Payload   []byte      `gorm:"column:payload;type:text"`
	CreatedAt time.Time   `gorm:"index;type:datetime"`
	UpdatedAt time.Time   `gorm:"type:datetime"`
}

func (t *TimerJob) TableName() string {
	return "warehouse_timer"
}

// Next 执行成功后计算下一次状态，cron 任务重新排期，单次任务结束
func (t *TimerJob) Next(now time.Time) error {
	t.Retries = 0
	t.Msg = ""
	if t.Cron != "" {
		return t.Reset(now)
	}
	t.Close(nil)
	return nil
}

func (t *TimerJob) Reset(now time.Time) error {
	if t.Cron == "" {
		return nil
	}
	scheduler, err := cron.Parse(t.Cron)
	if err != nil {
		t.Close(err)
		return err
	}

	t.NextTime = scheduler.Next(now)
	t.Status = TimerToRun
	return nil
}

// Retry 执行失败后的状态：未超过重试上限时延后 interval 重跑，否则置为失败
func (t *TimerJob) Retry(now time.Time, cause error, interval time.Duration, limit int) {
	t.Retries++
	t.Msg = truncate(cause.Error(), 256)
	if t.Cron != "" {
		// cron 任务不单独重试，等待下一个周期
		_ = t.Reset(now)
		return
	}
	if t.Retries > limit {
		t.Status = TimerFailed
		return
	}
	t.NextTime = now.Add(interval)
	t.Status = TimerToRun
}

func (t *TimerJob) Close(err error) {
	if err == nil || errors.Is(err, ErrTimerOverdue) {
		t.Status = TimerFinished
	} else {
		t.Status = TimerFailed
		t.Msg = truncate(err.Error(), 256)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
