// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Enqueue: the backing ring rejected the key publication (queue full);
// the pending value was rolled back out of the slot and, for evict and
// merge queues, handed back through the enqueue return value.
// For Poll: no key is pending.
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry the operation later (with backoff or yield) rather than propagating
// the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrUnknownKey indicates an enqueue targeted a key outside a declared or
// enum key space. Open key spaces never report it.
var ErrUnknownKey = errors.New("conflq: unknown key")

// ErrNilMerge indicates a user-supplied merger returned nil. The slot is
// left in a defined state: the newer value is installed unmerged, and the
// older value is returned from Enqueue for reuse.
var ErrNilMerge = errors.New("conflq: merger returned nil")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
