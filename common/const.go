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

package common

const (
	// App is the program name used in metric namespaces and log files.
	App = "netrace"

	// Version is the fallback build version when none is injected via ldflags.
	Version = "v0.0.1"

	// ScratchBufferSize is the size of the pooled buffer used to discard bytes
	// while seeking to a region, and of the buffered reader in front of the
	// decompressor's stdout pipe.
	ScratchBufferSize = 4096
)
