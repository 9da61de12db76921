package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// PriceObservation is one point of a token's bounded price history: the
// fixed-point price derived from the token's ledger balance at Timestamp.
type PriceObservation struct {
	Timestamp time.Time
	Price     *uint256.Int
}
