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


package db

import (
	"time"
)

type ResourceLock struct {
	ID       uint   `gorm:"primarykey;AUTO_INCREMENT"`
	Resource string `gorm:"type:varchar(255);unique"`
	// 加锁成功生成所有者ID，解锁时需要匹配，避免锁过期后误删别人的锁
	LockerID  string `gorm:"type:varchar(255);index:idx_locker_id"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ResourceLock) TableName() string {
	return "warehouse_resource_lock"
}
