package common

import "errors"

var (
	ErrEmptyFile        = errors.New("file is empty")
	ErrIncompleteBlocks = errors.New("file size is not a multiple of the block size")
	ErrShortRead        = errors.New("short read inside a block")
	ErrBlockOutOfRange  = errors.New("block index out of range")
	ErrCursorExhausted  = errors.New("block cursor exhausted")
	ErrBadSkip          = errors.New("skip count is negative or past the cursor bound")
	ErrMalformedString  = errors.New("malformed quoted string value")
	ErrMalformedUnits   = errors.New("missing closing bracket in units field")
	ErrMalformedNumber  = errors.New("malformed numeric value field")
	ErrBadValueType     = errors.New("unsupported value type")
	ErrKeywordNotFound  = errors.New("keyword not found in header")
	ErrClosed           = errors.New("file is closed")
)
