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

import "sort"

type ProductCount struct {
	ProductID string
	Count     int64
}

// SortByCountDesc 按数量降序，数量相同保持原有顺序
func SortByCountDesc(items []ProductCount) []ProductCount {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Count > items[j].Count
	})
	return items
}
