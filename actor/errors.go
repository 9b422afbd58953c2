package actor

import "errors"

// Error kinds observable at the core boundary, per spec.md §7.
var (
	ErrInvalidHandle    = errors.New("actor: invalid or retired handle")
	ErrMessageTooLarge  = errors.New("actor: payload too large")
	ErrModuleLoadFailed = errors.New("actor: module load failed")
	ErrModuleInitFailed = errors.New("actor: module init failed")
	ErrRegistryFull     = errors.New("actor: registry full")
	ErrNameTaken        = errors.New("actor: name already bound")
	ErrUnknownModule    = errors.New("actor: unknown module")
)
