//go:build unix

// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import "golang.org/x/sys/unix"

const (
	accessRead  = unix.R_OK
	accessWrite = unix.W_OK
)

// accessPath checks path against the real uid/gid, like access(2).
func accessPath(path string, mode uint32) error {
	return unix.Access(path, mode)
}
