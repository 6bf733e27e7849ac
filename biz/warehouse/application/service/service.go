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

package service

import (
	ddd "github.com/bytedance/dddwarehouse"
)

func boolResult(res *ddd.Result) (bool, error) {
	if res.Error != nil {
		return false, res.Error
	}
	ok, _ := res.Output.(bool)
	return ok, nil
}

func stringResult(res *ddd.Result) (string, error) {
	if res.Error != nil {
		return "", res.Error
	}
	s, _ := res.Output.(string)
	return s, nil
}
