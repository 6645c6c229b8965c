/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"
	"sync/atomic"

	"github.com/securekey/fabric-txsubmit/txsubmitter/api"
)

// MockConnector returns the configured session on Connect
type MockConnector struct {
	Session    *MockSession
	ConnectErr error

	connects int32
}

// NewMockConnector returns a connector for the given session
func NewMockConnector(session *MockSession) *MockConnector {
	return &MockConnector{Session: session}
}

// Connect records the call and returns the session or ConnectErr
func (c *MockConnector) Connect(ctx context.Context, identity *api.Identity, channelID string) (api.Session, error) {
	atomic.AddInt32(&c.connects, 1)
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	c.Session.connected(identity, channelID)
	return c.Session, nil
}

// ConnectCount returns the number of times Connect was called
func (c *MockConnector) ConnectCount() int {
	return int(atomic.LoadInt32(&c.connects))
}
