package assets

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// NormalizeAddress ensures a contract address is a 0x-prefixed, lower-case,
// 20-byte hex string, the canonical form stored inside a Contract AssetId.
func NormalizeAddress(address string) (string, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		return "", fmt.Errorf("%w: address is empty", ErrAddressMalformed)
	}

	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}

	if len(trimmed) != 40 {
		return "", fmt.Errorf("%w: %s must have 40 hex characters", ErrAddressMalformed, address)
	}

	if _, err := hex.DecodeString(trimmed); err != nil {
		return "", fmt.Errorf("%w: %s", ErrAddressMalformed, err.Error())
	}

	return "0x" + strings.ToLower(trimmed), nil
}
