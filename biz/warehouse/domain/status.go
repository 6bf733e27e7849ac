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

type OrderStatus string

const (
	StatusNew    OrderStatus = "NEW"
	StatusPaid   OrderStatus = "PAID"
	StatusSent   OrderStatus = "SENT"
	StatusClosed OrderStatus = "CLOSED"
)

type OrderAction string

const (
	ActionPay   OrderAction = "pay"
	ActionSend  OrderAction = "send"
	ActionClose OrderAction = "close"
)

var transitions = map[OrderStatus]map[OrderAction]OrderStatus{
	StatusNew:  {ActionPay: StatusPaid, ActionClose: StatusClosed},
	StatusPaid: {ActionSend: StatusSent, ActionClose: StatusClosed},
	StatusSent: {ActionClose: StatusClosed},
}

// Transition 订单状态机，非法的状态变更返回 false
func Transition(from OrderStatus, action OrderAction) (OrderStatus, bool) {
	to, ok := transitions[from][action]
	if !ok {
		return from, false
	}
	return to, true
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusPaid, StatusSent, StatusClosed:
		return true
	}
	return false
}
