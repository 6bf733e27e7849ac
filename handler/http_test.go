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

package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ddd "github.com/bytedance/dddwarehouse"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/cart"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/command"
	"github.com/bytedance/dddwarehouse/biz/warehouse/application/service"
	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/dal"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/po"
	"github.com/bytedance/dddwarehouse/biz/warehouse/infrastructure/repo"
	executor "github.com/bytedance/dddwarehouse/executor/sql"
	"github.com/bytedance/dddwarehouse/lock/mem"
	"github.com/bytedance/dddwarehouse/logger/stdr"
	"github.com/bytedance/dddwarehouse/metrics"
	"github.com/bytedance/dddwarehouse/testsuit"
	timer "github.com/bytedance/dddwarehouse/timer/sql"
)

func newServer(t *testing.T) (*httptest.Server, *metrics.Metrics) {
	db := testsuit.InitSqlite(append(po.Models(), &timer.TimerJob{})...)
	exec := executor.NewExecutor(db)
	tm := timer.NewDBTimer("handler_test", db, timer.WithDBProvider(exec.DB))
	engine := ddd.NewEngine(mem.NewMemLock(), exec, ddd.WithTimer(tm))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	deps := &command.Deps{
		Products:       repo.NewProductRepo(exec),
		Clients:        repo.NewClientRepo(exec),
		Sectors:        repo.NewSectorRepo(exec),
		Orders:         repo.NewOrderRepo(exec),
		Ordered:        repo.NewOrderedProductRepo(exec),
		Carts:          cart.NewMemStore(),
		Metrics:        m,
		MainSectorName: "MAIN",
		ClosureDelay:   time.Hour,
	}
	svc := NewWarehouseService(
		service.NewSectorService(engine, deps),
		service.NewProductService(engine, deps),
		service.NewClientService(engine, deps),
		service.NewOrderService(engine, deps, dal.NewDAL(exec)),
	)
	srv := httptest.NewServer(NewMux(svc, m, metrics.Handler(reg), stdr.NewStdr("handler_test")))
	t.Cleanup(srv.Close)
	return srv, m
}

type envelope struct {
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
	Message string          `json:"message"`
}

func call(t *testing.T, srv *httptest.Server, action, body string, payload interface{}) (int, envelope) {
	resp, err := http.Post(srv.URL+"/?Action="+action, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	if payload != nil && env.Success {
		require.NoError(t, json.Unmarshal(env.Payload, payload))
	}
	return resp.StatusCode, env
}

func TestOrderFlowOverHTTP(t *testing.T) {
	srv, m := newServer(t)

	var sector Sector
	status, _ := call(t, srv, "CreateSector", `{"Name":"main","Capacity":100}`, &sector)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "MAIN", sector.Name)

	var client domain.Client
	status, _ = call(t, srv, "CreateClient", `{"Name":"C1"}`, &client)
	require.Equal(t, http.StatusOK, status)

	var added AddStockResponse
	body := fmt.Sprintf(`{"SectorID":%q,"Code":"P1","Name":"syrup","Price":"2.50","Delivered":50,"Amount":50}`, sector.ID)
	status, _ = call(t, srv, "AddStock", body, &added)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, added.Placed)
	assert.Equal(t, 0, added.Remaining)

	var product domain.Product
	status, _ = call(t, srv, "GetProduct", `{"Code":"P1"}`, &product)
	require.Equal(t, http.StatusOK, status)

	var pending domain.Cart
	body = fmt.Sprintf(`{"ClientID":%q,"ProductID":%q,"Quantity":10}`, client.ID, product.ID)
	status, _ = call(t, srv, "AddProductToOrder", body, &pending)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "25", pending.TotalPrice.String())

	var confirmed ConfirmOrderResponse
	status, _ = call(t, srv, "ConfirmOrder", fmt.Sprintf(`{"ClientID":%q}`, client.ID), &confirmed)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, confirmed.OrderID)

	status, env := call(t, srv, "GetSector", `{"Name":"main"}`, &sector)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, 40, sector.Held)

	var ok OKResponse
	status, _ = call(t, srv, "CloseOrder", fmt.Sprintf(`{"ID":%q}`, confirmed.OrderID), &ok)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, ok.OK)
	status, _ = call(t, srv, "CloseOrder", fmt.Sprintf(`{"ID":%q}`, confirmed.OrderID), &ok)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, ok.OK)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Requests.WithLabelValues("ConfirmOrder", "200")))
}

func TestErrorMapping(t *testing.T) {
	srv, _ := newServer(t)

	status, env := call(t, srv, "GetOrder", `{"ID":"missing"}`, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)

	status, _ = call(t, srv, "CreateProduct", `{"Code":"","Name":"x","Price":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, "CreateSector", `{"Name":"main"`, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, srv, "NoSuchAction", `{}`, nil)
	assert.Equal(t, http.StatusNotFound, status)

	call(t, srv, "CreateSector", `{"Name":"main","Capacity":10}`, nil)
	var client domain.Client
	call(t, srv, "CreateClient", `{"Name":"C1"}`, &client)
	status, _ = call(t, srv, "ConfirmOrder", fmt.Sprintf(`{"ClientID":%q}`, client.ID), nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusOf(nil))
	assert.Equal(t, http.StatusNotFound, StatusOf(fmt.Errorf("x: %w", domain.ErrNotFound)))
	assert.Equal(t, http.StatusConflict, StatusOf(domain.ErrCapacityExceeded))
	assert.Equal(t, http.StatusConflict, StatusOf(domain.ErrQuantityUnavailable))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("boom")))
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
