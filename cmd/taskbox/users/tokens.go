package users

import (
	"encoding/base64"
	"time"

	"github.com/andrebq/taskbox/authprogram"
)

// newOfflineTokens signs with a throwaway secret, the session opened by an
// offline registration is discarded anyway.
func newOfflineTokens(encoded string) (*authprogram.Tokens, error) {
	secret, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return authprogram.NewTokens(secret, time.Minute, nil)
}
