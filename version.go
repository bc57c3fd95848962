// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

// Version is the library version.
const Version = "0.1.0"
