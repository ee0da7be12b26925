package fits

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"github.com/stelladrift/fits/pkg/common"
	"github.com/stelladrift/fits/pkg/storage"
)

// File is an open FITS file: the storage device plus the ordered HDU list
// built once at open time.
type File struct {
	path       string
	dev        storage.BlockDevice
	blockCount int64
	hdus       []*HDU
	extents    *btree.BTreeG[*HDU]
	closed     bool
}

// Open opens a FITS file on local storage.
func Open(path string) (*File, error) {
	dev, err := storage.NewLocalDevice(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return OpenDevice(dev, path)
}

// OpenDevice parses a FITS file from an already-open block device. The
// device is owned by the returned File; on any error it is closed before
// returning.
func OpenDevice(dev storage.BlockDevice, path string) (*File, error) {
	size := dev.Size()
	if size == 0 {
		dev.Close()
		return nil, common.ErrEmptyFile
	}
	if size%common.BlockSize != 0 {
		dev.Close()
		return nil, fmt.Errorf("%w: %d bytes", common.ErrIncompleteBlocks, size)
	}

	f := &File{
		path:       path,
		dev:        dev,
		blockCount: size / common.BlockSize,
		extents: btree.NewBTreeG[*HDU](func(a, b *HDU) bool {
			return a.headerStart < b.headerStart
		}),
	}

	cur := newBlockCursor(dev, 0, f.blockCount)
	for !cur.Done() {
		h, err := readHDU(dev, cur)
		if err != nil {
			dev.Close()
			return nil, fmt.Errorf("parsing HDU %d: %w", len(f.hdus), err)
		}
		f.hdus = append(f.hdus, h)
		f.extents.Set(h)
	}

	log.Debug().Msgf("opened %s: %d blocks, %d HDUs", path, f.blockCount, len(f.hdus))
	return f, nil
}

// Block reads block n from the device. Reads are bounds-checked and must
// return a full block.
func (f *File) Block(n int64) ([]byte, error) {
	if f.closed {
		return nil, common.ErrClosed
	}
	if n < 0 || n >= f.blockCount {
		return nil, fmt.Errorf("%w: block %d of %d", common.ErrBlockOutOfRange, n, f.blockCount)
	}

	block := make([]byte, common.BlockSize)
	read, err := f.dev.ReadAt(block, n*common.BlockSize)
	if read < common.BlockSize {
		return nil, fmt.Errorf("%w: block %d returned %d bytes", common.ErrShortRead, n, read)
	}
	if err != nil {
		return nil, fmt.Errorf("reading block %d: %w", n, err)
	}
	return block, nil
}

// Blocks returns a fresh cursor over the whole file.
func (f *File) Blocks() *BlockCursor {
	return newBlockCursor(f.dev, 0, f.blockCount)
}

// HDUs returns the ordered HDU list.
func (f *File) HDUs() []*HDU {
	return append([]*HDU(nil), f.hdus...)
}

// PrimaryHDU returns the first HDU, or nil for a file with none.
func (f *File) PrimaryHDU() *HDU {
	if len(f.hdus) == 0 {
		return nil
	}
	return f.hdus[0]
}

// HDUAt resolves which HDU owns the given block, header and data blocks
// alike.
func (f *File) HDUAt(block int64) (*HDU, error) {
	if block < 0 || block >= f.blockCount {
		return nil, fmt.Errorf("%w: block %d of %d", common.ErrBlockOutOfRange, block, f.blockCount)
	}

	var owner *HDU
	pivot := &HDU{headerStart: block}
	f.extents.Descend(pivot, func(h *HDU) bool {
		owner = h
		return false
	})
	if owner == nil || block >= owner.dataEnd {
		return nil, fmt.Errorf("%w: block %d has no owning HDU", common.ErrBlockOutOfRange, block)
	}
	return owner, nil
}

// BlockCount returns the total number of blocks on the device.
func (f *File) BlockCount() int64 {
	return f.blockCount
}

// Modified reports whether any HDU holds a rewritten card.
func (f *File) Modified() bool {
	for _, h := range f.hdus {
		if h.Modified() {
			return true
		}
	}
	return false
}

// Path returns the path the file was opened from.
func (f *File) Path() string {
	return f.path
}

// Close releases the storage device. It is safe to call more than once.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.dev.Close()
}
