package common

// Fixed geometry of the FITS on-disk layout. Every file is a sequence of
// BlockSize-byte blocks; header blocks hold CardsPerBlock fixed-width cards.
const (
	BlockSize     = 2880
	CardSize      = 80
	CardsPerBlock = BlockSize / CardSize

	// A card is an 8-byte keyword field, optionally followed by the
	// two-byte value indicator and a 20-byte formatted value field.
	KeywordWidth    = 8
	ValueIndicator  = "= "
	ValueFieldWidth = 20

	// Quoted string values are padded to at least this many content
	// characters between the apostrophes.
	MinQuotedWidth = 8
)

// Keywords with fixed meaning to the layout engine.
const (
	KeywordEnd     = "END"
	KeywordComment = "COMMENT"
	KeywordHistory = "HISTORY"
	KeywordBitpix  = "BITPIX"
	KeywordNaxis   = "NAXIS"
)
