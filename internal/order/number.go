package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const numberPrefix = "KNV"

// NewOrderNumber builds the customer facing order id: the prefix, the date
// as yymmdd and a random four digit suffix. Uniqueness is enforced by the
// store, callers retry on ErrDuplicateOrderNumber.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("%s%s%04d", numberPrefix, now.Format("060102"), rand.IntN(10000))
}
