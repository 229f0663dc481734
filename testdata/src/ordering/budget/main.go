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

func SubRelaxed(addr *uint32, delta uint32) uint32 {
	return atomic.AddUint32(addr, ^(delta - 1))
}

// Two decrements on each side produce more producer/consumer pairs than the
// configured cutoff allows, so the whole group is skipped and surfaced as a
// coverage gap instead of being correlated.

type rc struct {
	data  uint32
	count uint32
}

var obj = &rc{count: 2}

func retire(r *rc) {
	r.data = 7
	if SubRelaxed(&r.count, 1) == 0 {
		println(r.data)
	}
}

func release(r *rc) {
	r.data = 9
	if SubRelaxed(&r.count, 1) == 0 {
		println(r.data)
	}
}

func main() {
	go retire(obj)
	release(obj)
}
