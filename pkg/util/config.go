// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

type FilterData struct {
	Path    string   `toml:"path"`
	Columns []string `toml:"columns"`
	Types   []string `toml:"types"`
	MaxRows int      `toml:"maxRows"`
}

type FilterPred struct {
	Column string  `toml:"column"`
	Op     string  `toml:"op"`
	Value  float64 `toml:"value"`
}

type DebugOptions struct {
	PrintSchema bool `toml:"printSchema"`
	PrintResult bool `toml:"printResult"`
	MaxOutput   int  `toml:"maxOutput"`
}

type Config struct {
	Data    FilterData   `toml:"data"`
	Pred    FilterPred   `toml:"pred"`
	Workers int          `toml:"workers"`
	Debug   DebugOptions `toml:"debug"`
}
