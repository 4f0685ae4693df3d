package domain

import "errors"

var (
	// Arithmetic errors
	ErrArithmeticUnderflow = errors.New("amount exceeds available balance")
	ErrArithmeticOverflow  = errors.New("amount exceeds representable range")

	// Solvency errors
	ErrUndercollateralized    = errors.New("position would become undercollateralized")
	ErrNotUndercollateralized = errors.New("position is not undercollateralized")

	// Input errors
	ErrInvalidAmount = errors.New("amount must be an unsigned integer")

	// Collaborator errors
	ErrUnauthorized   = errors.New("caller is not an authorized operator")
	ErrTransferFailed = errors.New("asset transfer failed")
	ErrInvalidPrice   = errors.New("oracle returned a zero or invalid price")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
