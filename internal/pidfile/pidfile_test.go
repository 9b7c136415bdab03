package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestAcquireReadRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "early-service.pid")
	pf := New(path)

	if err := pf.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	pid, err := pf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Read() = %d, want %d", pid, os.Getpid())
	}

	if err := pf.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("pid file still present after Remove")
	}
}

func TestAcquireRefusesLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "early-service.pid")

	// The test process itself is the live owner.
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := New(path).Acquire(); err == nil {
		t.Error("Acquire succeeded over a live owner")
	}
}

func TestAcquireOverwritesGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "early-service.pid")
	if err := os.WriteFile(path, []byte("not a pid"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	pf := New(path)
	if err := pf.Acquire(); err != nil {
		t.Fatalf("Acquire over garbage failed: %v", err)
	}
	pid, err := pf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("Read() = %d, want %d", pid, os.Getpid())
	}
}

func TestRemoveMissingFile(t *testing.T) {
	pf := New(filepath.Join(t.TempDir(), "never-written.pid"))
	if err := pf.Remove(); err != nil {
		t.Errorf("Remove on a missing file failed: %v", err)
	}
}
