// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Chip describes a GPIO controller as listed in the class directory.
//
// It manages the lines Base to Base+NGPIO-1.
type Chip struct {
	Base  int
	Label string // For diagnostics, not always unique.
	NGPIO int
}

func (c *Chip) String() string {
	return fmt.Sprintf("%s [%d-%d]", c.Label, c.Base, c.Base+c.NGPIO-1)
}

// Chips returns the GPIO controllers found under the class directory, sorted
// by Base.
func (c *Controller) Chips() ([]Chip, error) {
	items, err := filepath.Glob(filepath.Join(c.root, "gpiochip*"))
	if err != nil {
		return nil, err
	}
	chips := make([]Chip, 0, len(items))
	for _, item := range items {
		chip, err := c.parseChip(item)
		if err != nil {
			return nil, fmt.Errorf("sysfs-gpio: %s: %w", filepath.Base(item), err)
		}
		chips = append(chips, chip)
	}
	sort.Slice(chips, func(i, j int) bool { return chips[i].Base < chips[j].Base })
	return chips, nil
}

func (c *Controller) parseChip(dir string) (Chip, error) {
	var chip Chip
	var err error
	if chip.Base, err = c.readInt(filepath.Join(dir, "base")); err != nil {
		return chip, err
	}
	if chip.NGPIO, err = c.readInt(filepath.Join(dir, "ngpio")); err != nil {
		return chip, err
	}
	b, err := c.readFile(filepath.Join(dir, "label"))
	if err != nil {
		return chip, err
	}
	chip.Label = strings.TrimSpace(string(b))
	return chip, nil
}

// readInt reads a pseudo-file that is known to contain a newline terminated
// integer.
func (c *Controller) readInt(path string) (int, error) {
	b, err := c.readFile(path)
	if err != nil {
		return 0, err
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		return 0, errors.New("invalid value")
	}
	return strconv.Atoi(string(b[:len(b)-1]))
}

// Chips returns the GPIO controllers under DefaultRoot.
func Chips() ([]Chip, error) {
	return std.Chips()
}
