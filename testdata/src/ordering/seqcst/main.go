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

// The standard sync/atomic operations are sequentially consistent, which
// always dominates the Release/Acquire minimum a handshake requires.

type record struct {
	value uint32
	done  uint32
}

var rec = &record{}

func write(r *record) {
	r.value = 3
	atomic.StoreUint32(&r.done, 1)
}

func read(r *record) uint32 {
	if atomic.LoadUint32(&r.done) == 1 {
		return r.value
	}
	return 0
}

func main() {
	go write(rec)
	println(read(rec))
}
