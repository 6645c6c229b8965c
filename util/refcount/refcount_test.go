/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package refcount

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoReferences(t *testing.T) {
	var closed int32

	c := New(func() {
		atomic.AddInt32(&closed, 1)
	})

	require.Equal(t, int32(0), atomic.LoadInt32(&closed), "Expecting resource to still be open")
	require.Truef(t, c.Close(), "Expecting Close to have succeeded")
	require.Falsef(t, c.Close(), "Expecting Close to have failed since the resource is already closed")
	require.Equal(t, int32(1), atomic.LoadInt32(&closed), "Expecting resource to have been closed once")
}

func TestWithReferences(t *testing.T) {
	var closed int32

	c := New(func() {
		atomic.AddInt32(&closed, 1)
	})

	require.Falsef(t, c.Release(), "Expecting Release to have failed since there are no outstanding references")
	require.Truef(t, c.Acquire(), "Expecting Acquire to have succeeded")
	require.Truef(t, c.Acquire(), "Expecting second Acquire to have succeeded")
	require.Equal(t, 2, c.Count())
	require.Truef(t, c.Close(), "Expecting Close to have succeeded")
	require.Falsef(t, c.Acquire(), "Expecting Acquire to have failed since resource is closed")
	require.Truef(t, c.Release(), "Expecting Release to have succeeded")
	require.Equal(t, int32(0), atomic.LoadInt32(&closed), "Expecting resource to still be open since there is an outstanding reference")
	require.Truef(t, c.Release(), "Expecting Release to have succeeded")
	require.Equal(t, int32(1), atomic.LoadInt32(&closed), "Expecting resource to have been closed since the last reference was released")
	require.Falsef(t, c.Release(), "Expecting Release to have failed since resource is closed")
	require.Equal(t, int32(1), atomic.LoadInt32(&closed))
}

func TestReleaseWithoutClose(t *testing.T) {
	var closed int32

	c := New(func() {
		atomic.AddInt32(&closed, 1)
	})

	require.True(t, c.Acquire())
	require.True(t, c.Release())
	require.Equal(t, int32(0), atomic.LoadInt32(&closed), "Resource must stay open until Close is called")
	require.True(t, c.Acquire(), "Resource can be reused while open")
}

func TestConcurrent(t *testing.T) {
	var closed int32

	c := New(func() {
		atomic.AddInt32(&closed, 1)
	})

	var wg sync.WaitGroup

	concurrency := 20
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Acquire() {
				c.Release()
			}
		}()
	}

	require.Truef(t, c.Close(), "Expecting Close to have succeeded")

	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&closed), "Expecting resource to be closed exactly once")
}
