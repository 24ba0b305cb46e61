package cartridge

import "errors"

// Error kinds per spec.md §7. cmd/goboy maps these to exit codes.
var (
	ErrInvalidRomSize  = errors.New("invalid rom size")
	ErrRomSizeMismatch = errors.New("rom size mismatch with header")
	ErrUnknownRomSize  = errors.New("unknown rom size code")
	ErrUnknownRamSize  = errors.New("unknown ram size code")
	ErrUnknownMBC      = errors.New("unknown mbc type")
	ErrNotImplemented  = errors.New("not implemented")
)
