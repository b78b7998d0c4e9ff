package service

import "errors"

var (
	ErrValidation          = errors.New("validation")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrInvalidLink         = errors.New("invalid or expired link")
	ErrInsufficientCoins   = errors.New("insufficient coins")
	ErrAlreadyClaimed      = errors.New("daily bonus already claimed")
	ErrOutOfStock          = errors.New("out of stock")
	ErrEmptyCart           = errors.New("cart is empty")
)
