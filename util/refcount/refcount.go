/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package refcount

import (
	"sync"

	"github.com/hyperledger/fabric-sdk-go/pkg/common/logging"
)

var logger = logging.NewLogger("txsubmit")

// Closer closes the resource
type Closer func()

// ReferenceCounter guards a shared resource (e.g. an SDK instance) that is
// used by several short-lived sessions. The closer is invoked exactly once:
// after Close has been called and the last outstanding reference is released.
type ReferenceCounter struct {
	mutex    sync.Mutex
	refCount int
	closing  bool
	closed   bool
	closer   Closer
}

// New returns a new reference counter
func New(closer Closer) *ReferenceCounter {
	return &ReferenceCounter{
		closer: closer,
	}
}

// Acquire adds a reference. False is returned if the resource is closing or closed.
func (c *ReferenceCounter) Acquire() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closing {
		logger.Debugf("Cannot acquire reference since resource is closed")
		return false
	}

	c.refCount++
	logger.Debugf("Acquired reference. RefCount: %d", c.refCount)
	return true
}

// Release releases a reference. False is returned if there was no reference to release.
func (c *ReferenceCounter) Release() bool {
	c.mutex.Lock()

	if c.refCount <= 0 {
		c.mutex.Unlock()
		logger.Warnf("Cannot release resource since the refcount is %d", c.refCount)
		return false
	}

	c.refCount--
	logger.Debugf("Released reference. RefCount: %d", c.refCount)

	closeNow := c.shouldClose()
	c.mutex.Unlock()

	if closeNow {
		logger.Debugf("Last reference removed - closing resource ...")
		c.closer()
	}
	return true
}

// Close closes the resource when the last reference is released.
// False is returned if Close was already called.
func (c *ReferenceCounter) Close() bool {
	c.mutex.Lock()

	if c.closing {
		c.mutex.Unlock()
		logger.Debugf("Resource already closed.")
		return false
	}
	c.closing = true

	logger.Debugf("Current refcount: %d. Resource will be closed when last reference is removed.", c.refCount)

	closeNow := c.shouldClose()
	c.mutex.Unlock()

	if closeNow {
		c.closer()
	}
	return true
}

// Count returns the number of outstanding references
func (c *ReferenceCounter) Count() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.refCount
}

// shouldClose must be called with the mutex held. It marks the resource as
// closed so that the closer runs once.
func (c *ReferenceCounter) shouldClose() bool {
	if !c.closing || c.closed || c.refCount > 0 {
		return false
	}
	c.closed = true
	return true
}
