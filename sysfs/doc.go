// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfs drives GPIO lines through the Linux sysfs GPIO class
// directory.
//
// https://www.kernel.org/doc/Documentation/gpio/sysfs.txt
//
// The package level functions (Export, Unexport, SetDirection, Input, Output,
// SetEdge) operate on /sys/class/gpio. They keep no state: every call resolves
// its control file, opens it, performs exactly one read or one write and
// closes it again. The kernel is the only source of truth for a line.
//
// A line must be exported before its direction, value or edge can be touched:
//
//	if err := sysfs.Export(17); err != nil { ... }
//	if err := sysfs.SetDirection(17, sysfs.Out); err != nil { ... }
//	if err := sysfs.Output(17, sysfs.High); err != nil { ... }
//	if err := sysfs.Unexport(17); err != nil { ... }
//
// Writing to an edge file only arms the kernel's edge detection. Waiting for
// the edge is left to the caller, who can poll ValuePath for POLLPRI.
//
// The same lines are also exposed as periph.io/x/conn/v3/gpio.PinIO through
// Pins and gpioreg once the driver is initialized.
package sysfs
