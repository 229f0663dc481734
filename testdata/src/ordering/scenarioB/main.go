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

func StoreRelease(addr *uint32, v uint32) { atomic.StoreUint32(addr, v) }
func LoadRelaxed(addr *uint32) uint32     { return atomic.LoadUint32(addr) }

type mailbox struct {
	message uint64
	flag    uint32
}

var box = &mailbox{}

func post(m *mailbox) {
	m.message = 7
	StoreRelease(&m.flag, 1)
}

func poll(m *mailbox) uint64 {
	if LoadRelaxed(&m.flag) == 1 { // @Violation(Acquire)
		return m.message
	}
	return 0
}

func main() {
	go post(box)
	println(poll(box))
}
