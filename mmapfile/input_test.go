package mmapfile

import (
	"os"
	"testing"
)

func TestOpenMapsFileContents(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "mmapfile-*.bin")

	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}

	want := []byte("BZh9 some fixture bytes for the mapping test")

	if _, err := f.Write(want); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	f.Close()

	in, err := Open(f.Name())

	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if string(in.Bytes()) != string(want) {
		t.Fatalf("Bytes() = %q, want %q", in.Bytes(), want)
	}

	if err := in.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
}

func TestAcquireReleaseRefcounting(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "mmapfile-*.bin")

	if err != nil {
		t.Fatalf("CreateTemp() error = %v", err)
	}

	f.Write([]byte("data"))
	f.Close()

	in, err := Open(f.Name())

	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	in.Acquire()

	if err := in.Release(); err != nil {
		t.Fatalf("first Release() error = %v", err)
	}

	if err := in.Release(); err != nil {
		t.Fatalf("second Release() error = %v", err)
	}
}
