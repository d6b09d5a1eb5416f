package reconcile

import "errors"

var (
	ErrInvalidAddress   = errors.New("invalid viewer address")
	ErrUnsupportedChain = errors.New("chain is not supported by this instance")
	ErrNoViewer         = errors.New("no viewer address set")
	ErrAdminDisabled    = errors.New("admin snapshot is disabled")
)
