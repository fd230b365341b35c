package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// ParseWeiHex converts a 0x-prefixed hex wei quantity to an ETH amount
func ParseWeiHex(s string) (decimal.Decimal, error) {
	wei, err := hexutil.DecodeBig(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode wei value: %w", err)
	}
	return decimal.NewFromBigInt(wei, -18), nil
}
