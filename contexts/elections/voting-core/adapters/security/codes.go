package securityadapter

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeDigits = 6

// NumericCodes produces zero-padded six digit codes drawn uniformly from
// 000000-999999.
type NumericCodes struct{}

func (NumericCodes) NewCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate one-time code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
