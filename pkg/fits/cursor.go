package fits

import (
	"errors"
	"fmt"
	"io"

	"github.com/stelladrift/fits/pkg/common"
	"github.com/stelladrift/fits/pkg/storage"
)

// BlockCursor walks a half-open range of blocks on a device, one block at a
// time. It is single-pass: Next and Skip move forward only, and there is no
// rewind. Cursors over disjoint ranges of the same device are independent.
type BlockCursor struct {
	dev storage.BlockDevice
	pos int64
	end int64
}

func newBlockCursor(dev storage.BlockDevice, start, end int64) *BlockCursor {
	return &BlockCursor{dev: dev, pos: start, end: end}
}

// Next reads the block at the current position and advances. It returns
// ErrCursorExhausted when the cursor has reached its end bound, or when the
// device produces zero bytes at the block boundary.
func (c *BlockCursor) Next() ([]byte, error) {
	if c.Done() {
		return nil, common.ErrCursorExhausted
	}

	block := make([]byte, common.BlockSize)
	n, err := c.dev.ReadAt(block, c.pos*common.BlockSize)
	if n == 0 {
		// Zero bytes at a block boundary ends the sequence; a device
		// failure does not.
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading block %d: %w", c.pos, err)
		}
		c.end = c.pos
		return nil, common.ErrCursorExhausted
	}
	if n < common.BlockSize {
		return nil, fmt.Errorf("%w: block %d returned %d bytes", common.ErrShortRead, c.pos, n)
	}
	if err != nil {
		return nil, fmt.Errorf("reading block %d: %w", c.pos, err)
	}

	c.pos++
	return block, nil
}

// Skip advances the cursor by count blocks without reading them.
func (c *BlockCursor) Skip(count int64) error {
	if count < 0 || c.pos+count > c.end {
		return fmt.Errorf("%w: skip %d at block %d of %d", common.ErrBadSkip, count, c.pos, c.end)
	}
	c.pos += count
	return nil
}

// Position returns the current block index.
func (c *BlockCursor) Position() int64 {
	return c.pos
}

// Done reports whether the cursor has reached its end bound, without
// consuming a block.
func (c *BlockCursor) Done() bool {
	return c.pos >= c.end
}

// SubRange derives a fresh cursor over [start, end) of the same device.
func (c *BlockCursor) SubRange(start, end int64) (*BlockCursor, error) {
	deviceBlocks := c.dev.Size() / common.BlockSize
	if start < 0 || end < start || end > deviceBlocks {
		return nil, fmt.Errorf("%w: sub-range [%d, %d) of %d blocks", common.ErrBlockOutOfRange, start, end, deviceBlocks)
	}
	return newBlockCursor(c.dev, start, end), nil
}
