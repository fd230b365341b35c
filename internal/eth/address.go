package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ValidAddress reports whether s is a well-formed 0x-prefixed hex address
func ValidAddress(s string) bool {
	return common.IsHexAddress(s)
}

// Checksum normalizes s to its EIP-55 checksummed form
func Checksum(s string) (string, error) {
	if !common.IsHexAddress(s) {
		return "", fmt.Errorf("not a hex address: %q", s)
	}
	return common.HexToAddress(s).Hex(), nil
}
