package fits

import (
	"fmt"

	"github.com/stelladrift/fits/pkg/common"
	"github.com/stelladrift/fits/pkg/storage"
)

// HDU is one header-data unit: the run of cards up to and including the END
// card, plus the half-open block range [dataStart, dataEnd) holding its data.
type HDU struct {
	dev         storage.BlockDevice
	cards       []Card
	headerStart int64
	dataStart   int64
	dataEnd     int64
}

// readHDU consumes header blocks from the cursor until the END card, then
// computes the data extent from BITPIX/NAXIS* and skips the cursor past it.
func readHDU(dev storage.BlockDevice, cur *BlockCursor) (*HDU, error) {
	h := &HDU{dev: dev, headerStart: cur.Position()}

	sawEnd := false
	for !sawEnd {
		block, err := cur.Next()
		if err != nil {
			return nil, fmt.Errorf("reading header block: %w", err)
		}

		for i := 0; i < common.CardsPerBlock; i++ {
			card, err := DecodeCard(block[i*common.CardSize : (i+1)*common.CardSize])
			if err != nil {
				return nil, fmt.Errorf("decoding card %d of block %d: %w", i, cur.Position()-1, err)
			}
			h.cards = append(h.cards, card)

			if card.Keyword() == common.KeywordEnd {
				if _, ok := card.(*RawCard); ok {
					sawEnd = true
					break
				}
			}
		}
	}

	blocks, err := h.dataBlockCount()
	if err != nil {
		return nil, err
	}

	h.dataStart = cur.Position()
	h.dataEnd = h.dataStart + blocks
	if blocks > 0 {
		if err := cur.Skip(blocks); err != nil {
			return nil, fmt.Errorf("data extent of %d blocks overruns the file: %w", blocks, err)
		}
	}

	return h, nil
}

// dataBlockCount derives the extent length from the mandatory cards:
// ceil(|BITPIX|/8 * NAXIS1 * ... * NAXISn / block size), zero when NAXIS=0.
func (h *HDU) dataBlockCount() (int64, error) {
	naxis, err := h.intValue(common.KeywordNaxis)
	if err != nil {
		return 0, err
	}

	bitpix, err := h.intValue(common.KeywordBitpix)
	if err != nil {
		return 0, err
	}

	if naxis == 0 {
		return 0, nil
	}
	if bitpix < 0 {
		bitpix = -bitpix
	}

	size := bitpix / 8
	for i := int64(1); i <= naxis; i++ {
		axis, err := h.intValue(fmt.Sprintf("%s%d", common.KeywordNaxis, i))
		if err != nil {
			return 0, err
		}
		size *= axis
	}

	return (size + common.BlockSize - 1) / common.BlockSize, nil
}

func (h *HDU) intValue(keyword string) (int64, error) {
	card, err := h.Header(keyword)
	if err != nil {
		return 0, fmt.Errorf("mandatory card %s: %w", keyword, err)
	}

	value, ok := card.(*ValueCard)
	if !ok {
		return 0, fmt.Errorf("mandatory card %s carries no value", keyword)
	}
	return value.AsInt()
}

// Header returns the first card with the given keyword.
func (h *HDU) Header(keyword string) (Card, error) {
	keyword, err := normalizeKeyword(keyword)
	if err != nil {
		return nil, err
	}

	for _, card := range h.cards {
		if card.Keyword() == keyword {
			return card, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", common.ErrKeywordNotFound, keyword)
}

// Headers returns every card matching the keyword in original order, or all
// cards when no keyword is given.
func (h *HDU) Headers(keyword ...string) []Card {
	if len(keyword) == 0 {
		return append([]Card(nil), h.cards...)
	}

	want, err := normalizeKeyword(keyword[0])
	if err != nil {
		return nil
	}

	var matches []Card
	for _, card := range h.cards {
		if card.Keyword() == want {
			matches = append(matches, card)
		}
	}
	return matches
}

// Modified reports whether any owned card has been rewritten.
func (h *HDU) Modified() bool {
	for _, card := range h.cards {
		if card.Modified() {
			return true
		}
	}
	return false
}

// Blocks returns a cursor over the HDU's data extent, for verbatim copy.
func (h *HDU) Blocks() *BlockCursor {
	return newBlockCursor(h.dev, h.dataStart, h.dataEnd)
}

// DataExtent returns the half-open block range [start, end) of the data.
func (h *HDU) DataExtent() (int64, int64) {
	return h.dataStart, h.dataEnd
}
