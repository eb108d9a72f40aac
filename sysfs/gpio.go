// Copyright 2016 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/driver/driverreg"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// Pins is all the pins exported by GPIO sysfs.
//
// Some CPU architectures have the pin numbers start at 0 and use consecutive
// pin numbers but this is not the case for all CPU architectures, some
// have gaps in the pin numbering.
//
// This global variable is initialized once at driver initialization and isn't
// mutated afterward. Do not modify it.
var Pins map[int]*Pin

// Pin represents one GPIO pin as found by sysfs.
//
// Every operation goes through the Controller, so no file handle is kept
// open between calls.
type Pin struct {
	number int
	name   string
	c      *Controller

	mu       sync.Mutex
	exported bool      // Set once export succeeded or the pin was found exported
	mode     pinMode   // Cache of the last direction written
	edge     gpio.Edge // Cache of the last edge used
}

func newPin(c *Controller, number int) *Pin {
	return &Pin{number: number, name: "GPIO" + strconv.Itoa(number), c: c}
}

// String implements conn.Resource.
func (p *Pin) String() string {
	return p.name
}

// Halt implements conn.Resource.
//
// It stops edge detection if enabled.
func (p *Pin) Halt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.haltEdge()
}

// Name implements pin.Pin.
func (p *Pin) Name() string {
	return p.name
}

// Number implements pin.Pin.
func (p *Pin) Number() int {
	return p.number
}

// Function implements pin.Pin.
func (p *Pin) Function() string {
	return string(p.Func())
}

// Func implements pin.PinFunc.
func (p *Pin) Func() pin.Func {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return pin.FuncNone
	}
	dir, err := p.c.Direction(p.number)
	if err != nil {
		return pin.FuncNone
	}
	l, err := p.c.Input(p.number)
	if err != nil {
		return pin.FuncNone
	}
	if dir == In {
		p.mode = modeIn
		if l == High {
			return gpio.IN_HIGH
		}
		return gpio.IN_LOW
	}
	p.mode = modeOut
	if l == High {
		return gpio.OUT_HIGH
	}
	return gpio.OUT_LOW
}

// SupportedFuncs implements pin.PinFunc.
func (p *Pin) SupportedFuncs() []pin.Func {
	return []pin.Func{gpio.IN, gpio.OUT}
}

// SetFunc implements pin.PinFunc.
func (p *Pin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return p.In(gpio.PullNoChange, gpio.NoEdge)
	case gpio.OUT_HIGH:
		return p.Out(gpio.High)
	case gpio.OUT, gpio.OUT_LOW:
		return p.Out(gpio.Low)
	default:
		return p.wrap(errors.New("unsupported function"))
	}
}

// In implements gpio.PinIn.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	if pull != gpio.PullNoChange && pull != gpio.Float {
		return p.wrap(errors.New("doesn't support pull-up/pull-down"))
	}
	e, err := toEdge(edge)
	if err != nil {
		return p.wrap(err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return p.wrap(err)
	}
	if p.mode != modeIn {
		if err := p.c.SetDirection(p.number, In); err != nil {
			return p.wrap(err)
		}
		p.mode = modeIn
	}
	// Push none first to help flush accumulated edges. Lines without edge
	// support are left alone unless an edge is requested.
	if p.edge != gpio.NoEdge || edge != gpio.NoEdge {
		if err := p.c.SetEdge(p.number, None); err != nil {
			return p.wrap(err)
		}
		p.edge = gpio.NoEdge
	}
	if edge != gpio.NoEdge {
		if err := p.c.SetEdge(p.number, e); err != nil {
			return p.wrap(err)
		}
		p.edge = edge
	}
	return nil
}

// Read implements gpio.PinIn.
//
// A failed read returns gpio.Low.
func (p *Pin) Read() gpio.Level {
	l, err := p.c.Input(p.number)
	if err != nil {
		return gpio.Low
	}
	return l == High
}

// WaitForEdge implements gpio.PinIn.
//
// Edge delivery is not implemented; it always returns false. Poll the file
// returned by ValuePath for POLLPRI instead.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// Pull implements gpio.PinIn.
//
// It returns gpio.PullNoChange since gpio sysfs has no support for input pull
// resistor.
func (p *Pin) Pull() gpio.Pull {
	return gpio.PullNoChange
}

// DefaultPull implements gpio.PinIn.
//
// It returns gpio.PullNoChange since gpio sysfs has no support for input pull
// resistor.
func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullNoChange
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return p.wrap(err)
	}
	if p.mode != modeOut {
		if err := p.haltEdge(); err != nil {
			return err
		}
		if err := p.c.SetDirection(p.number, Out); err != nil {
			return p.wrap(err)
		}
		p.mode = modeOut
	}
	v := Low
	if l == gpio.High {
		v = High
	}
	if err := p.c.Output(p.number, v); err != nil {
		return p.wrap(err)
	}
	return nil
}

// PWM implements gpio.PinOut.
//
// This is not supported on sysfs.
func (p *Pin) PWM(gpio.Duty, physic.Frequency) error {
	return p.wrap(errors.New("pwm is not supported via sysfs"))
}

// ValuePath returns the value file of the pin.
func (p *Pin) ValuePath() string {
	return p.c.ValuePath(p.number)
}

// Unexport releases the pin back to the kernel. The pin is exported again on
// next use.
func (p *Pin) Unexport() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.c.Unexport(p.number); err != nil {
		return p.wrap(err)
	}
	p.exported = false
	p.mode = modeUnknown
	p.edge = gpio.NoEdge
	return nil
}

//

// open exports the pin if it isn't yet.
//
// lock must be held.
func (p *Pin) open() error {
	if p.exported || p.c.Exported(p.number) {
		p.exported = true
		return nil
	}
	// EBUSY means someone else exported it in between.
	if err := p.c.Export(p.number); err != nil && !errors.Is(err, syscall.EBUSY) {
		if os.IsPermission(err) {
			return fmt.Errorf("need more access, try as root or setup udev rules: %w", err)
		}
		return err
	}
	p.exported = true
	return nil
}

// haltEdge stops any on-going edge detection.
func (p *Pin) haltEdge() error {
	if p.edge != gpio.NoEdge {
		if err := p.c.SetEdge(p.number, None); err != nil {
			return p.wrap(err)
		}
		p.edge = gpio.NoEdge
	}
	return nil
}

func (p *Pin) wrap(err error) error {
	return fmt.Errorf("sysfs-gpio (%s): %w", p, err)
}

//

type pinMode int

const (
	modeUnknown pinMode = 0
	modeIn      pinMode = 1
	modeOut     pinMode = 2
)

func toEdge(e gpio.Edge) (Edge, error) {
	switch e {
	case gpio.NoEdge:
		return None, nil
	case gpio.RisingEdge:
		return Rising, nil
	case gpio.FallingEdge:
		return Falling, nil
	case gpio.BothEdges:
		return Both, nil
	default:
		return None, ErrInvalidEdge
	}
}

// driverGPIO implements periph.Driver.
type driverGPIO struct {
	c *Controller
}

func (d *driverGPIO) String() string {
	return "sysfs-gpio"
}

func (d *driverGPIO) Prerequisites() []string {
	return nil
}

func (d *driverGPIO) After() []string {
	return nil
}

// Init initializes GPIO sysfs handling code.
//
// Uses gpio sysfs as described at
// https://www.kernel.org/doc/Documentation/gpio/sysfs.txt
//
// GPIO sysfs is often the only way to do edge triggered interrupts. Doing this
// requires cooperation from a driver in the kernel.
//
// The main drawback of GPIO sysfs is that it doesn't expose internal pull
// resistor and it is much slower than using memory mapped hardware registers.
func (d *driverGPIO) Init() (bool, error) {
	pins, err := d.discover()
	if err == errNoChip {
		return false, err
	}
	if err != nil {
		return true, err
	}
	if err := d.c.access(filepath.Join(d.c.root, "export"), accessWrite); os.IsPermission(err) {
		return true, fmt.Errorf("need more access, try as root or setup udev rules: %w", err)
	}
	Pins = pins
	numbers := make([]int, 0, len(pins))
	for n := range pins {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	for _, n := range numbers {
		p := pins[n]
		if err := gpioreg.Register(p); err != nil {
			return true, err
		}
		// If there is a CPU memory mapped gpio pin with the same number, the
		// driver has to unregister this pin and map its own after.
		if err := gpioreg.RegisterAlias(strconv.Itoa(n), p.name); err != nil {
			log.Println("sysfs-gpio: alias", n, "not registered:", err)
		}
	}
	return true, nil
}

var errNoChip = errors.New("no GPIO pin found")

// discover builds one Pin per line of every chip found.
func (d *driverGPIO) discover() (map[int]*Pin, error) {
	chips, err := d.c.Chips()
	if err != nil {
		return nil, err
	}
	if len(chips) == 0 {
		return nil, errNoChip
	}
	// There are hosts that use non-continuous pin numbering so use a map instead
	// of an array.
	pins := map[int]*Pin{}
	for _, chip := range chips {
		for i := chip.Base; i < chip.Base+chip.NGPIO; i++ {
			if _, ok := pins[i]; ok {
				return nil, fmt.Errorf("found two pins with number %d", i)
			}
			pins[i] = newPin(d.c, i)
		}
	}
	return pins, nil
}

func init() {
	if isLinux {
		driverreg.MustRegister(&drvGPIO)
	}
}

var drvGPIO = driverGPIO{c: std}

var _ conn.Resource = &Pin{}
var _ gpio.PinIn = &Pin{}
var _ gpio.PinOut = &Pin{}
var _ gpio.PinIO = &Pin{}
var _ pin.PinFunc = &Pin{}
