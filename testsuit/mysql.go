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


package testsuit

import (
	"fmt"
	"os"
	"testing"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type MySQLOption struct {
	NoLog bool
}

func mysqlDSN(database string) string {
	if dsn := os.Getenv("WAREHOUSE_TEST_MYSQL_DSN"); dsn != "" {
		return dsn
	}
	if os.Getenv("LOCAL_TEST") == "true" {
		return fmt.Sprintf("root:@tcp(localhost:3308)/%s?parseTime=true&loc=Local", database)
	}
	return fmt.Sprintf("root:@tcp(mysql:3306)/%s?parseTime=true&loc=Local", database)
}

// SkipWithoutMysql 未配置 mysql 环境时跳过测试
func SkipWithoutMysql(t *testing.T) {
	t.Helper()
	if os.Getenv("LOCAL_TEST") != "true" && os.Getenv("WAREHOUSE_TEST_MYSQL_DSN") == "" {
		t.Skip("mysql not configured, set LOCAL_TEST=true or WAREHOUSE_TEST_MYSQL_DSN")
	}
}

func InitMysql(opts ...MySQLOption) *gorm.DB {
	cfg := &gorm.Config{}
	for _, o := range opts {
		if o.NoLog {
			cfg.Logger = logger.Default.LogMode(logger.Silent)
		}
	}
	db, err := gorm.Open(mysql.Open(mysqlDSN("my_db")), cfg)
	if err != nil {
		panic(err)
	}

	return db.Debug()
}
