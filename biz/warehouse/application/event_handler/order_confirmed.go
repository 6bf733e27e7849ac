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

package event_handler

import (
	"context"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	event "github.com/bytedance/dddwarehouse/common/domain_event/warehouse"
)

// OnOrderConfirmedHandler 为订单每一行生成 OrderedProduct 统计记录，重复投递时跳过
type OnOrderConfirmedHandler struct {
	repo  domain.OrderedProductRepository
	event *event.OrderConfirmedEvent
}

func (h *OnOrderConfirmedHandler) Init(ctx context.Context) ([]string, error) {
	return []string{"ordered_product:" + h.event.OrderID}, nil
}

func (h *OnOrderConfirmedHandler) Main(ctx context.Context, repo *ddd.Repository) error {
	existing, err := h.repo.FindByOrderID(ctx, h.event.OrderID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("ordered products already recorded", "orderID", h.event.OrderID)
		return nil
	}

	for _, line := range h.event.Lines {
		repo.Add(&domain.OrderedProduct{OrderID: h.event.OrderID, ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return nil
}

func NewOnOrderConfirmedHandler(repo domain.OrderedProductRepository) func(evt *event.OrderConfirmedEvent) ddd.ICommandMain {
	return func(evt *event.OrderConfirmedEvent) ddd.ICommandMain {
		return &OnOrderConfirmedHandler{repo: repo, event: evt}
	}
}
