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

package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	ddd "github.com/bytedance/dddwarehouse"
)

type Product struct {
	ddd.BaseEntity

	ID    string
	Code  string // 业务唯一编码
	Name  string
	Price decimal.Decimal
}

func NewProduct(code, name string, price decimal.Decimal) (*Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("product code is empty: %w", ErrInvalidArgument)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("product price %s is negative: %w", price, ErrInvalidArgument)
	}
	return &Product{Code: code, Name: name, Price: price}, nil
}

func (p *Product) SetID(id string) {
	p.ID = id
}

func (p *Product) GetID() string {
	return p.ID
}

// Update 只允许修改名称与价格，编码创建后不变
func (p *Product) Update(name *string, price *decimal.Decimal) error {
	if price != nil {
		if price.IsNegative() {
			return fmt.Errorf("product price %s is negative: %w", price, ErrInvalidArgument)
		}
		p.Price = *price
	}
	if name != nil {
		p.Name = *name
	}
	p.Dirty()
	return nil
}

type Client struct {
	ddd.BaseEntity

	ID   string
	Name string
}

func NewClient(name string) (*Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("client name is empty: %w", ErrInvalidArgument)
	}
	return &Client{Name: name}, nil
}

func (c *Client) SetID(id string) {
	c.ID = id
}

func (c *Client) GetID() string {
	return c.ID
}
