// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import "sync/atomic"

func StoreRelaxed(addr *uint32, v uint32) { atomic.StoreUint32(addr, v) }
func LoadAcquire(addr *uint32) uint32     { return atomic.LoadUint32(addr) }

// Two unrelated cells with no shared handle: their operations must land in
// separate location groups and never correlate.

type gauge struct {
	level uint32
}

type sensor struct {
	sample  uint64
	primed  uint32
	ignored uint32
}

var (
	g = &gauge{}
	s = &sensor{}
)

func bump(x *gauge) {
	StoreRelaxed(&x.level, 5)
}

func sample(x *sensor) uint64 {
	if LoadAcquire(&x.primed) == 1 {
		return x.sample
	}
	return 0
}

func main() {
	go bump(g)
	println(sample(s))
}
