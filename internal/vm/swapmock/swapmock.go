// Package swapmock provides a go.uber.org/mock-generated test double for
// vm.SwapBackend, letting swap-I/O failure paths (IoError) be exercised
// deterministically without a real file.
//
//go:generate mockgen -destination=mock_swap.go -package=swapmock github.com/orizon-lang/orizonvm/internal/vm SwapBackend
package swapmock
