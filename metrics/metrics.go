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

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "warehouse"

// Metrics 订单与库存的业务指标，nil 时所有方法为空操作
type Metrics struct {
	OrdersConfirmed  prometheus.Counter
	OrderTransitions *prometheus.CounterVec
	StockMoved       *prometheus.CounterVec
	CartsEvicted     prometheus.Counter
	Requests         *prometheus.CounterVec
	LatencyMS        *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_confirmed_total",
			Help:      "Total number of confirmed orders.",
		}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order status transitions by action and outcome.",
		}, []string{"action", "accepted"}),
		StockMoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_moved_units_total",
			Help:      "Units moved in or out of sectors.",
		}, []string{"direction"}),
		CartsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_evicted_total",
			Help:      "Idle carts removed by the TTL sweep.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"action", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"action"}),
	}
	reg.MustRegister(m.OrdersConfirmed, m.OrderTransitions, m.StockMoved, m.CartsEvicted, m.Requests, m.LatencyMS)
	return m
}

func (m *Metrics) OrderConfirmed() {
	if m == nil {
		return
	}
	m.OrdersConfirmed.Inc()
}

func (m *Metrics) Transition(action string, accepted bool) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(action, strconv.FormatBool(accepted)).Inc()
}

func (m *Metrics) Stock(direction string, quantity int) {
	if m == nil {
		return
	}
	m.StockMoved.WithLabelValues(direction).Add(float64(quantity))
}

func (m *Metrics) Evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CartsEvicted.Add(float64(n))
}

func (m *Metrics) Request(action string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(action, strconv.Itoa(status)).Inc()
	m.LatencyMS.WithLabelValues(action).Observe(float64(elapsed.Milliseconds()))
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
