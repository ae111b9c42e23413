// Copyright 2025 The netrace Authors
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

// Package netrace decodes and replays network-on-chip traffic traces.
//
// A Context owns one open trace: the decompressed byte stream, the decoded
// header, the dependency registry, and the cleared-packet list. Packets come
// out of ReadPacket in trace order; a consumer injects a packet into its
// simulator once DependenciesCleared reports it safe to do so, then calls
// ClearAndFree to release it and unblock its successors.
package netrace
