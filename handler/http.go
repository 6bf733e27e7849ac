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
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/go-logr/logr"

	"github.com/bytedance/dddwarehouse/biz/warehouse/domain"
	"github.com/bytedance/dddwarehouse/metrics"
)

var (
	ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Envelope 所有接口统一的返回结构
type Envelope struct {
	Success bool        `json:"success"`
	Payload interface{} `json:"payload,omitempty"`
	Message string      `json:"message,omitempty"`
}

// StatusOf 业务错误到 HTTP 状态码的映射
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrQuantityUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Handler 按 Action 参数反射调用 WarehouseServiceImpl 的同名方法，请求体为 JSON
func Handler(service *WarehouseServiceImpl, m *metrics.Metrics, logger logr.Logger) http.HandlerFunc {
	serviceVal := reflect.ValueOf(service)
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		action := r.URL.Query().Get("Action")
		status := http.StatusOK
		defer func() {
			m.Request(action, status, time.Since(start))
		}()

		method := serviceVal.MethodByName(action)
		if !method.IsValid() || !isAction(method.Type()) {
			status = http.StatusNotFound
			writeJSON(w, status, Envelope{Message: "unknown action " + action})
			return
		}
		if r.Method != http.MethodPost {
			status = http.StatusMethodNotAllowed
			writeJSON(w, status, Envelope{Message: "use POST"})
			return
		}

		req := reflect.New(method.Type().In(1).Elem())
		data, err := io.ReadAll(r.Body)
		if err != nil {
			status = http.StatusBadRequest
			writeJSON(w, status, Envelope{Message: "body invalid"})
			return
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, req.Interface()); err != nil {
				status = http.StatusBadRequest
				writeJSON(w, status, Envelope{Message: "body invalid: " + err.Error()})
				return
			}
		}

		rets := method.Call([]reflect.Value{reflect.ValueOf(r.Context()), req})
		if errValue, _ := rets[1].Interface().(error); errValue != nil {
			status = StatusOf(errValue)
			if status == http.StatusInternalServerError {
				logger.Error(errValue, "action failed", "action", action)
			}
			writeJSON(w, status, Envelope{Message: errValue.Error()})
			return
		}
		writeJSON(w, status, Envelope{Success: true, Payload: rets[0].Interface()})
	}
}

// isAction 方法签名必须是 func(ctx, *Req) (Resp, error)
func isAction(t reflect.Type) bool {
	return t.NumIn() == 2 && t.In(0) == ctxType &&
		t.In(1).Kind() == reflect.Ptr && t.In(1).Elem().Kind() == reflect.Struct &&
		t.NumOut() == 2 && t.Out(1) == errType
}

// NewMux 注册业务接口与 /metrics
func NewMux(service *WarehouseServiceImpl, m *metrics.Metrics, metricsHandler http.Handler, logger logr.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", Handler(service, m, logger))
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Envelope{Success: true})
	})
	return mux
}
