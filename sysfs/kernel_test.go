// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
)

// kernelSim mimics the GPIO class directory in a temporary directory.
//
// Writes to export create gpio<N>/{direction,value,edge}; writes to unexport
// remove it. Every other path is a plain file.
type kernelSim struct {
	root     string
	opens    int
	accesses int
}

func newKernelSim(t *testing.T) *kernelSim {
	k := &kernelSim{root: t.TempDir()}
	writeFiles(t, k.root, map[string]string{"export": "", "unexport": ""})
	return k
}

func (k *kernelSim) controller() *Controller {
	return &Controller{root: k.root, open: k.open, access: k.access}
}

func (k *kernelSim) access(path string, mode uint32) error {
	k.accesses++
	_, err := os.Stat(path)
	return err
}

func (k *kernelSim) open(path string, flag int) (fileIO, error) {
	k.opens++
	switch path {
	case filepath.Join(k.root, "export"):
		return &classFile{path: path, handle: k.export}, nil
	case filepath.Join(k.root, "unexport"):
		return &classFile{path: path, handle: k.unexport}, nil
	}
	return fileIOOpen(path, flag)
}

func (k *kernelSim) pinDir(n int) string {
	return filepath.Join(k.root, "gpio"+strconv.Itoa(n))
}

func (k *kernelSim) export(n int) error {
	if n < 0 {
		return syscall.EINVAL
	}
	dir := k.pinDir(n)
	if _, err := os.Stat(dir); err == nil {
		return syscall.EBUSY
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		return err
	}
	for name, content := range map[string]string{"direction": "in\n", "value": "0\n", "edge": "none\n"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (k *kernelSim) unexport(n int) error {
	dir := k.pinDir(n)
	if _, err := os.Stat(dir); err != nil {
		return syscall.EINVAL
	}
	return os.RemoveAll(dir)
}

// classFile is an open handle on export or unexport.
type classFile struct {
	path   string
	handle func(n int) error
}

func (f *classFile) Read(b []byte) (int, error) {
	return 0, &os.PathError{Op: "read", Path: f.path, Err: syscall.EBADF}
}

func (f *classFile) Write(b []byte) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, &os.PathError{Op: "write", Path: f.path, Err: syscall.EINVAL}
	}
	if err := f.handle(n); err != nil {
		return 0, &os.PathError{Op: "write", Path: f.path, Err: err}
	}
	return len(b), nil
}

func (f *classFile) Close() error {
	return nil
}

func writeFiles(t *testing.T, root string, files map[string]string) string {
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readString(t *testing.T, path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
