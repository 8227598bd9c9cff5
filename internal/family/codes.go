// Package family owns invite-code minting and format validation for
// the family linking registry.
package family

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
)

const (
	// CodePrefix is the fixed human-readable prefix of every invite code
	CodePrefix = "FAM-"

	// codeSuffixLength is the number of random characters after the prefix
	codeSuffixLength = 3

	// codeAlphabet excludes visually confusable characters (I, O, 0, 1)
	// so codes survive being read aloud or copied by hand.
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// MaxLinkedAccounts is the capacity ceiling of one family subscription
	MaxLinkedAccounts = 5
)

var codePattern = regexp.MustCompile(`^FAM-[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{3}$`)

// GenerateCode mints a new invite code of the form FAM-XXX
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.WriteString(CodePrefix)
	for i := 0; i < codeSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// IsValidFormat is a purely structural check, independent of whether
// the code is actually known to the registry.
func IsValidFormat(code string) bool {
	return codePattern.MatchString(code)
}
