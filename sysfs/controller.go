// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultRoot is the GPIO class directory exposed by the kernel.
const DefaultRoot = "/sys/class/gpio"

var (
	// ErrInvalidDirection is returned when a Direction other than In or Out is
	// passed. No file is touched in that case.
	ErrInvalidDirection = errors.New("sysfs-gpio: invalid direction")
	// ErrInvalidEdge is returned when an Edge other than None, Rising, Falling
	// or Both is passed. No file is touched in that case.
	ErrInvalidEdge = errors.New("sysfs-gpio: invalid edge")
)

// Direction is the I/O direction of a line.
type Direction uint8

const (
	In  Direction = iota // "in"
	Out                  // "out"
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

// Level is the logic level of a line.
type Level uint8

const (
	Low  Level = 0
	High Level = 1
)

func (l Level) String() string {
	if l == Low {
		return "Low"
	}
	return "High"
}

// Edge selects which transitions make the value file poll-ready.
type Edge uint8

const (
	None    Edge = iota // "none"
	Rising              // "rising"
	Falling             // "falling"
	Both                // "both"
)

var edgeNames = [...]string{None: "none", Rising: "rising", Falling: "falling", Both: "both"}

func (e Edge) String() string {
	if int(e) < len(edgeNames) {
		return edgeNames[e]
	}
	return "Edge(" + strconv.Itoa(int(e)) + ")"
}

// fileIO is the subset of *os.File the controller needs.
type fileIO interface {
	io.Reader
	io.Writer
	io.Closer
}

func fileIOOpen(path string, flag int) (fileIO, error) {
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Controller performs GPIO operations against one GPIO class directory.
//
// It holds no state besides its root so it is safe to share; concurrent
// operations on the same line are ordered by the kernel only.
type Controller struct {
	root   string
	open   func(path string, flag int) (fileIO, error)
	access func(path string, mode uint32) error
}

// New returns a Controller rooted at root, usually DefaultRoot.
func New(root string) *Controller {
	return &Controller{root: root, open: fileIOOpen, access: accessPath}
}

// Root returns the GPIO class directory of c.
func (c *Controller) Root() string {
	return c.root
}

// Export asks the kernel to create gpio<pin>/ with its control files.
//
// It fails if pin is invalid or already exported.
func (c *Controller) Export(pin int) error {
	return c.writeFile(filepath.Join(c.root, "export"), strconv.Itoa(pin))
}

// Unexport asks the kernel to remove gpio<pin>/.
func (c *Controller) Unexport(pin int) error {
	return c.writeFile(filepath.Join(c.root, "unexport"), strconv.Itoa(pin))
}

// Exported returns true if gpio<pin>/ is currently present.
func (c *Controller) Exported(pin int) bool {
	_, err := os.Stat(c.pinDir(pin))
	return err == nil
}

// SetDirection configures pin as input or output.
func (c *Controller) SetDirection(pin int, dir Direction) error {
	if dir != In && dir != Out {
		return ErrInvalidDirection
	}
	return c.writeFile(c.pinFile(pin, "direction"), dir.String())
}

// Direction reads back the direction of pin.
func (c *Controller) Direction(pin int) (Direction, error) {
	b, err := c.readFile(c.pinFile(pin, "direction"))
	if err != nil {
		return In, err
	}
	switch s := strings.TrimSpace(string(b)); s {
	case "in":
		return In, nil
	case "out":
		return Out, nil
	default:
		return In, fmt.Errorf("%w: read %q", ErrInvalidDirection, s)
	}
}

// Input reads the level of pin.
//
// Only the exact content "0", surrounding whitespace excluded, reads as Low.
// Anything else reads as High.
func (c *Controller) Input(pin int) (Level, error) {
	b, err := c.readFile(c.ValuePath(pin))
	if err != nil {
		return Low, err
	}
	if strings.TrimSpace(string(b)) == "0" {
		return Low, nil
	}
	return High, nil
}

// Output drives pin to l. Any non-zero Level is written as "1".
//
// The kernel rejects or ignores the write if pin isn't an output; this is not
// checked here.
func (c *Controller) Output(pin int, l Level) error {
	v := "0"
	if l != Low {
		v = "1"
	}
	return c.writeFile(c.ValuePath(pin), v)
}

// SetEdge selects the transitions that make the value file of pin poll-ready.
//
// Not every line supports edge detection; the kernel then fails the write.
func (c *Controller) SetEdge(pin int, e Edge) error {
	if e > Both {
		return ErrInvalidEdge
	}
	return c.writeFile(c.pinFile(pin, "edge"), e.String())
}

// Edge reads back the edge selection of pin.
func (c *Controller) Edge(pin int) (Edge, error) {
	b, err := c.readFile(c.pinFile(pin, "edge"))
	if err != nil {
		return None, err
	}
	s := strings.TrimSpace(string(b))
	for e, name := range edgeNames {
		if s == name {
			return Edge(e), nil
		}
	}
	return None, fmt.Errorf("%w: read %q", ErrInvalidEdge, s)
}

// ValuePath returns the path of the value file of pin, the file to poll for
// POLLPRI once an edge is selected.
func (c *Controller) ValuePath(pin int) string {
	return c.pinFile(pin, "value")
}

func (c *Controller) pinDir(pin int) string {
	return filepath.Join(c.root, "gpio"+strconv.Itoa(pin))
}

func (c *Controller) pinFile(pin int, name string) string {
	return filepath.Join(c.pinDir(pin), name)
}

// writeFile writes content to the existing file path in a single write.
func (c *Controller) writeFile(path, content string) (err error) {
	c.waitForPermissions(path, accessWrite)
	f, err := c.open(path, os.O_WRONLY|os.O_TRUNC)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = io.WriteString(f, content)
	return err
}

func (c *Controller) readFile(path string) ([]byte, error) {
	c.waitForPermissions(path, accessRead)
	f, err := c.open(path, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

//

var std = New(DefaultRoot)

// Export exports pin under DefaultRoot. See Controller.Export.
func Export(pin int) error {
	return std.Export(pin)
}

// Unexport unexports pin under DefaultRoot. See Controller.Unexport.
func Unexport(pin int) error {
	return std.Unexport(pin)
}

// SetDirection sets the direction of pin under DefaultRoot.
func SetDirection(pin int, dir Direction) error {
	return std.SetDirection(pin, dir)
}

// Input reads pin under DefaultRoot. See Controller.Input.
func Input(pin int) (Level, error) {
	return std.Input(pin)
}

// Output drives pin under DefaultRoot.
func Output(pin int, l Level) error {
	return std.Output(pin, l)
}

// SetEdge sets the edge selection of pin under DefaultRoot.
func SetEdge(pin int, e Edge) error {
	return std.SetEdge(pin, e)
}

// ValuePath returns the value file of pin under DefaultRoot.
func ValuePath(pin int) string {
	return std.ValuePath(pin)
}
