// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"slices"
	"sync"

	"github.com/gogpu/spirvcross/spirv"
)

// Handle is an opaque reference to a compiler context. Handle values are
// never reused within a process, so a stale handle can only fail.
type Handle uint64

// compilerContext is the state behind one handle. mu serializes every
// operation on it; contexts never share state with each other.
type compilerContext struct {
	mu      sync.Mutex
	module  *spirv.Module
	active  *spirv.EntryPoint
	options targetOptions
}

var table = struct {
	sync.RWMutex
	next     Handle
	contexts map[Handle]*compilerContext
}{contexts: make(map[Handle]*compilerContext)}

// CreateContext parses words into a new context. The words are copied.
func CreateContext(words []uint32) (Handle, error) {
	m, err := spirv.Parse(slices.Clone(words))
	if err != nil {
		var spvErr *spirv.Error
		if errors.As(err, &spvErr) {
			return 0, &Error{Status: StatusCompilationError, Diagnostic: spvErr.Error()}
		}
		return 0, unhandled(ReasonNone, "%v", err)
	}

	c := &compilerContext{module: m, options: defaultTargetOptions()}
	if len(m.EntryPoints) > 0 {
		c.active = m.EntryPoints[0]
	}

	table.Lock()
	table.next++
	h := table.next
	table.contexts[h] = c
	live := len(table.contexts)
	table.Unlock()

	slogger().Debug("native: context created",
		"handle", uint64(h), "words", len(words), "entryPoints", len(m.EntryPoints), "live", live)
	return h, nil
}

// DestroyContext releases a context. Destroying an unknown or already
// destroyed handle fails with StatusUnhandled.
func DestroyContext(h Handle) error {
	table.Lock()
	_, ok := table.contexts[h]
	delete(table.contexts, h)
	live := len(table.contexts)
	table.Unlock()

	if !ok {
		return unhandled(ReasonUnknownHandle, "handle %d", uint64(h))
	}
	slogger().Debug("native: context destroyed", "handle", uint64(h), "live", live)
	return nil
}

// LiveContexts returns the number of contexts not yet destroyed.
func LiveContexts() int {
	table.RLock()
	defer table.RUnlock()
	return len(table.contexts)
}

// withContext runs fn with the context for h locked.
func withContext(h Handle, fn func(c *compilerContext) error) error {
	table.RLock()
	c, ok := table.contexts[h]
	table.RUnlock()
	if !ok {
		return unhandled(ReasonUnknownHandle, "handle %d", uint64(h))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(c)
}

// requireID fails with StatusInvalidID when the module does not declare id.
func (c *compilerContext) requireID(id spirv.ID) error {
	if !c.module.HasID(id) {
		return invalidID("id %d is not declared by this module", id)
	}
	return nil
}

// requireMember fails with StatusInvalidID unless structID is a struct type
// with at least member+1 members.
func (c *compilerContext) requireMember(structID spirv.ID, member uint32) error {
	t := c.module.Types[structID]
	if t == nil || t.Op != spirv.OpTypeStruct {
		return invalidID("id %d is not a struct type", structID)
	}
	if int(member) >= len(t.Members) {
		return invalidID("struct %d has no member %d", structID, member)
	}
	return nil
}
