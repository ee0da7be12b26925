package fits

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stelladrift/fits/pkg/common"
)

var blankCard = bytes.Repeat([]byte{' '}, common.CardSize)

// Write serializes the file to a new path: every card of every HDU is
// re-encoded in order, the header run is padded with blank cards to the
// block boundary, and the data blocks are copied verbatim from the original
// device. The output is written through a temp file and renamed into place,
// guarded by a lock file against concurrent writers.
func (f *File) Write(path string) error {
	if f.closed {
		return common.ErrClosed
	}

	lockFilePath := fmt.Sprintf("%s.lock", path)
	fileLock := flock.New(lockFilePath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return fmt.Errorf("error while trying to acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another process is writing %s", path)
	}
	defer fileLock.Unlock()
	defer os.Remove(lockFilePath)

	tmpPath := fmt.Sprintf("%s.%s", path, uuid.New().String()[:6])
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := f.writeTo(out); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	log.Debug().Msgf("wrote %s: %d HDUs", path, len(f.hdus))
	return nil
}

func (f *File) writeTo(out *os.File) error {
	writer := bufio.NewWriterSize(out, 512*1024)

	for i, hdu := range f.hdus {
		written := 0
		for _, card := range hdu.cards {
			if _, err := writer.Write(card.Bytes()); err != nil {
				return fmt.Errorf("writing header of HDU %d: %w", i, err)
			}
			written += common.CardSize
		}

		for written%common.BlockSize != 0 {
			if _, err := writer.Write(blankCard); err != nil {
				return fmt.Errorf("padding header of HDU %d: %w", i, err)
			}
			written += common.CardSize
		}

		cur := hdu.Blocks()
		for !cur.Done() {
			block, err := cur.Next()
			if err != nil {
				return fmt.Errorf("copying data of HDU %d: %w", i, err)
			}
			if _, err := writer.Write(block); err != nil {
				return fmt.Errorf("copying data of HDU %d: %w", i, err)
			}
		}
	}

	return writer.Flush()
}
