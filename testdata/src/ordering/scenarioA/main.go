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

// Ordering-suffixed wrappers standing in for a relaxed-atomics library.
func StoreRelaxed(addr *uint32, v uint32) { atomic.StoreUint32(addr, v) }
func LoadAcquire(addr *uint32) uint32     { return atomic.LoadUint32(addr) }

type packet struct {
	payload uint32
	ready   uint32
}

var shared = &packet{}

func produce(p *packet) {
	p.payload = 42
	StoreRelaxed(&p.ready, 1) // @Violation(Release)
}

func consume(p *packet) uint32 {
	if LoadAcquire(&p.ready) == 1 {
		return p.payload
	}
	return 0
}

func main() {
	go produce(shared)
	println(consume(shared))
}
