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

package dal

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/po"
)

type DBProvider interface {
	DB(ctx context.Context) *gorm.DB
}

// DAL 报表查询，直接读取 PO 表
type DAL struct {
	db DBProvider
}

func NewDAL(db DBProvider) *DAL {
	return &DAL{db: db}
}

var (
	orderTable   = (&po.SaleOrderPO{}).TableName()
	lineTable    = (&po.SaleOrderLinePO{}).TableName()
	productTable = (&po.ProductPO{}).TableName()
)

func (d *DAL) scanDecimal(ctx context.Context, query string, args ...interface{}) (decimal.Decimal, error) {
	var v decimal.NullDecimal
	if err := d.db.DB(ctx).Raw(query, args...).Row().Scan(&v); err != nil {
		return decimal.Zero, err
	}
	if !v.Valid {
		return decimal.Zero, nil
	}
	return v.Decimal, nil
}

func (d *DAL) MaxPriceInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return d.scanDecimal(ctx, fmt.Sprintf("SELECT MAX(total_price) FROM %s WHERE client_id = ?", orderTable), clientID)
}

func (d *DAL) MinPriceInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return d.scanDecimal(ctx, fmt.Sprintf("SELECT MIN(total_price) FROM %s WHERE client_id = ?", orderTable), clientID)
}

// 客户订单中出现过的商品，按当前价格统计
const clientProductPrice = "SELECT %s(p.price) FROM %s l JOIN %s o ON o.id = l.order_id JOIN %s p ON p.id = l.product_id WHERE o.client_id = ?"

func (d *DAL) MaxPriceOfProductInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	return d.scanDecimal(ctx, fmt.Sprintf(clientProductPrice, "MAX", lineTable, orderTable, productTable), clientID)
}

func (d *DAL) AveragePriceOfProductInClientOrders(ctx context.Context, clientID string) (decimal.Decimal, error) {
	avg, err := d.scanDecimal(ctx, fmt.Sprintf(clientProductPrice, "AVG", lineTable, orderTable, productTable), clientID)
	if err != nil {
		return decimal.Zero, err
	}
	return avg.Round(2), nil
}

type productCountRow struct {
	ProductID string
	Count     int64
}

func toCounts(rows []productCountRow) []domain.ProductCount {
	res := make([]domain.ProductCount, len(rows))
	for i, r := range rows {
		res[i] = domain.ProductCount{ProductID: r.ProductID, Count: r.Count}
	}
	return res
}

// ProductQuantitiesOfClient 客户各商品的购买总量，按商品 ID 排序
func (d *DAL) ProductQuantitiesOfClient(ctx context.Context, clientID string) ([]domain.ProductCount, error) {
	rows := make([]productCountRow, 0)
	err := d.db.DB(ctx).Table(lineTable+" l").
		Select("l.product_id AS product_id, SUM(l.quantity) AS count").
		Joins(fmt.Sprintf("JOIN %s o ON o.id = l.order_id", orderTable)).
		Where("o.client_id = ?", clientID).
		Group("l.product_id").Order("l.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCounts(rows), nil
}

// FrequentlyBoughtTogether 与指定商品出现在同一订单中的其他商品及订单数
func (d *DAL) FrequentlyBoughtTogether(ctx context.Context, productID string) ([]domain.ProductCount, error) {
	rows := make([]productCountRow, 0)
	err := d.db.DB(ctx).Table(lineTable+" base").
		Select("other.product_id AS product_id, COUNT(DISTINCT other.order_id) AS count").
		Joins(fmt.Sprintf("JOIN %s other ON other.order_id = base.order_id AND other.product_id <> base.product_id", lineTable)).
		Where("base.product_id = ?", productID).
		Group("other.product_id").Order("other.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toCounts(rows), nil
}
