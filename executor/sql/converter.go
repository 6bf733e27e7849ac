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

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	ddd "github.com/bytedance/dddwarehouse"
)

type Entity2Model func(entity, parent ddd.IEntity, op ddd.OpType) (ddd.IModel, error)
type Model2Entity func(m ddd.IModel, do ddd.IEntity) error

type Converter struct {
	entity2Model Entity2Model
	model2Entity Model2Entity
}

var entity2ModelRegistry = map[reflect.Type]Converter{}

func realType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

// RegisterEntity2Model 注册实体与数据模型的互转函数，需在 Engine 运行前调用
func RegisterEntity2Model(entity ddd.IEntity, f1 Entity2Model, f2 Model2Entity) {
	entity2ModelRegistry[realType(entity)] = Converter{
		entity2Model: f1,
		model2Entity: f2,
	}
}

// RegisterConverter 使用时直接 sql.RegisterConverter(&do{}, converter)
func RegisterConverter(entity ddd.IEntity, converter ddd.IConverter) {
	RegisterEntity2Model(entity, converter.Entity2Model, converter.Model2Entity)
}

// IOwner 模型持有的子表行随聚合根整体重写，不做逐行比对
type IOwner interface {
	OwnedRows() []Owned
}

type Owned struct {
	Model      interface{} // 子表模型，用于按外键删除
	ForeignKey string
	Rows       interface{} // 子表行的 slice，为空时只删除
}

func deleteOwned(db *gorm.DB, m ddd.IModel) error {
	owner, ok := m.(IOwner)
	if !ok {
		return nil
	}
	for _, o := range owner.OwnedRows() {
		if err := db.Where(o.ForeignKey+" = ?", m.GetID()).Delete(o.Model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createOwned(db *gorm.DB, m ddd.IModel) error {
	owner, ok := m.(IOwner)
	if !ok {
		return nil
	}
	for _, o := range owner.OwnedRows() {
		rows := reflect.ValueOf(o.Rows)
		if !rows.IsValid() || rows.Kind() != reflect.Slice || rows.Len() == 0 {
			continue
		}
		if err := db.Create(o.Rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func hasField(m ddd.IModel, name string) bool {
	t := reflect.Indirect(reflect.ValueOf(m)).Type()
	_, ok := t.FieldByName(name)
	return ok
}

type execFunc func(db *gorm.DB, a *ddd.Action) error

var opMap = map[ddd.OpType]execFunc{
	ddd.OpInsert: func(db *gorm.DB, a *ddd.Action) error {
		for _, m := range a.Models {
			if err := db.Create(m).Error; err != nil {
				return err
			}
			if err := createOwned(db, m); err != nil {
				return err
			}
		}
		return nil
	},
	ddd.OpUpdate: func(db *gorm.DB, a *ddd.Action) error {
		for i, m := range a.Models {
			var fields []string
			if len(a.PrevModels) > i {
				fields = DiffModel(m, a.PrevModels[i])
			}
			tx := db.Model(m)
			if len(fields) > 0 {
				if hasField(m, "UpdatedAt") {
					fields = append(fields, "updated_at")
				}
				tx = tx.Select(fields)
			} else {
				// 没有快照或者快照在修改之后才取，整行更新
				tx = tx.Select("*").Omit("created_at")
			}
			if err := tx.Updates(m).Error; err != nil {
				return err
			}
			if err := deleteOwned(db, m); err != nil {
				return err
			}
			if err := createOwned(db, m); err != nil {
				return err
			}
		}
		return nil
	},
	ddd.OpDelete: func(db *gorm.DB, a *ddd.Action) error {
		for _, m := range a.Models {
			if err := deleteOwned(db, m); err != nil {
				return err
			}
			s, err := schema.Parse(m, schemaCache, db.NamingStrategy)
			if err != nil {
				return err
			}
			if len(s.PrimaryFields) != 1 {
				if err := db.Delete(m).Error; err != nil {
					return err
				}
				continue
			}
			pk := s.PrimaryFields[0].DBName
			newPO := reflect.New(reflect.Indirect(reflect.ValueOf(m)).Type()).Interface()
			if err := db.Where(pk+" = ?", m.GetID()).Delete(newPO).Error; err != nil {
				return err
			}
		}
		return nil
	},
}
