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
	"reflect"
	"strings"

	"gorm.io/gorm/schema"
)

var strategy = schema.NamingStrategy{IdentifierMaxLength: 64}

func hasValue(tag, attr string) bool {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, attr) {
			return true
		}
	}
	return false
}

func getTagValue(tag, attr string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, attr+":") {
			return strings.TrimSpace(strings.TrimPrefix(p, attr+":"))
		}
	}
	return ""
}

// equalValue 优先使用类型自带的 Equal 方法，例如 time.Time 和 decimal.Decimal
func equalValue(curr, prev reflect.Value) (equal, ok bool) {
	m := curr.MethodByName("Equal")
	if m.IsValid() && m.Type().NumIn() == 1 && m.Type().In(0) == curr.Type() &&
		m.Type().NumOut() == 1 && m.Type().Out(0).Kind() == reflect.Bool {
		return m.Call([]reflect.Value{prev})[0].Bool(), true
	}
	if curr.Comparable() {
		return curr.Equal(prev), true
	}
	return false, false
}

func diffStruct(currVal, prevVal reflect.Value) []string {
	result := make([]string, 0)
	poType := currVal.Type()
	for i := 0; i < currVal.NumField(); i++ {
		field := poType.Field(i)
		fieldVal, prevFieldVal := currVal.Field(i), prevVal.Field(i)
		if !fieldVal.CanInterface() {
			continue
		}
		fieldTag := field.Tag.Get("gorm")
		if fieldTag == "-" {
			continue
		}
		// 默认使用 gorm 的名称规则
		fieldName := strategy.ColumnName("", field.Name)
		if fieldTag != "" && hasValue(fieldTag, "column") {
			fieldName = getTagValue(fieldTag, "column")
		}
		if fieldVal.Kind() == reflect.Struct && (field.Anonymous || hasValue(fieldTag, "embedded")) {
			prefix := ""
			if fieldTag != "" && hasValue(fieldTag, "embeddedPrefix") {
				prefix = getTagValue(fieldTag, "embeddedPrefix")
			}
			for _, k := range diffStruct(fieldVal, prevFieldVal) {
				result = append(result, prefix+k)
			}
			continue
		}
		if equal, ok := equalValue(fieldVal, prevFieldVal); ok && equal {
			continue
		}
		// 不能比对的字段一律更新
		result = append(result, fieldName)
	}
	return result
}

// DiffModel 模型差异对比，返回 gorm 命名规范的列名
// 支持常规数据类型、带 Equal 方法的类型以及嵌套可导出的非指针 struct，gorm:"-" 的字段不参与比对
func DiffModel(curr, prev interface{}) []string {
	currVal, prevVal := reflect.Indirect(reflect.ValueOf(curr)), reflect.Indirect(reflect.ValueOf(prev))
	if currVal.Kind() != reflect.Struct || prevVal.Kind() != reflect.Struct {
		return nil
	}
	if currVal.Type() != prevVal.Type() {
		return nil
	}
	return diffStruct(currVal, prevVal)
}
