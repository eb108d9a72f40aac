// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import "time"

const (
	// PermissionTimeout bounds how long an operation waits for its control
	// file to become accessible.
	PermissionTimeout = time.Second
	// PermissionPollInterval is the delay between two access checks.
	PermissionPollInterval = 50 * time.Millisecond
)

// waitForPermissions waits until path is accessible with mode, or until
// PermissionTimeout elapsed, whichever comes first.
//
// Writing to /export creates the control files synchronously but the udev
// rules that hand them over to the gpio group run asynchronously, so a file
// can exist a little while before the current user may open it. Nothing is
// reported on timeout: the open that follows fails with the real error.
func (c *Controller) waitForPermissions(path string, mode uint32) {
	for start := time.Now(); c.access(path, mode) != nil && time.Since(start) < PermissionTimeout; {
		time.Sleep(PermissionPollInterval)
	}
}
