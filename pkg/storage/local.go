package storage

import (
	"fmt"
	"os"
)

type LocalDevice struct {
	path       string
	fileHandle *os.File
	size       int64
}

func NewLocalDevice(path string) (*LocalDevice, error) {
	fileHandle, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := fileHandle.Stat()
	if err != nil {
		fileHandle.Close()
		return nil, err
	}

	return &LocalDevice{
		path:       path,
		fileHandle: fileHandle,
		size:       fi.Size(),
	}, nil
}

func (d *LocalDevice) Size() int64 {
	return d.size
}

func (d *LocalDevice) ReadAt(dest []byte, off int64) (int, error) {
	n, err := d.fileHandle.ReadAt(dest, off)
	if err != nil {
		return n, fmt.Errorf("unable to read data from file: %w", err)
	}
	return n, nil
}

func (d *LocalDevice) Path() string {
	return d.path
}

func (d *LocalDevice) Close() error {
	return d.fileHandle.Close()
}
