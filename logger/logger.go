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


// Package logger holds the verbosity levels shared by the logr loggers of the module.
package logger

// logr V-levels. Info logs are always emitted, debug logs only when the
// configured verbosity is at least LevelDebug.
const (
	LevelInfo  = 0
	LevelDebug = 1
)

// ParseLevel maps a config level name onto a logr verbosity.
func ParseLevel(name string) int {
	switch name {
	case "debug", "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}
