package chain

import "errors"

var (
	ErrUnsupportedShape = errors.New("unsupported contract output shape")
	ErrUnknownOrder     = errors.New("order not found on chain")
	ErrNoContract       = errors.New("contract address not configured")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrAuthorMismatch   = errors.New("note author is not the configured signer")
)
