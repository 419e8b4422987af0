package resettokengenerator

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	e "recoverme/internal/core/domain/errors"
	resettoken "recoverme/internal/core/domain/reset_token"
)

// TokenBytes is the amount of entropy in every token, 256 bits.
const TokenBytes = 32

type HMAC struct {
	secretKey []byte
	entropy   io.Reader
}

func NewHMAC(secretKey string) *HMAC {
	return NewHMACWithEntropy(secretKey, rand.Reader)
}

func NewHMACWithEntropy(secretKey string, entropy io.Reader) *HMAC {
	if secretKey == "" {
		panic(e.NewInvalidArgumentError("secretKey", "must not be empty"))
	}
	if entropy == nil {
		panic(e.NewNilArgumentError("entropy"))
	}
	return &HMAC{secretKey: []byte(secretKey), entropy: entropy}
}

// Generate never falls back to a weaker source when entropy is unavailable.
func (h *HMAC) Generate() (token resettoken.RawToken, hash resettoken.Hash, err error) {
	b := make([]byte, TokenBytes)
	if _, err := io.ReadFull(h.entropy, b); err != nil {
		return token, hash, errors.Join(resettoken.ErrEntropyUnavailable, fmt.Errorf("could not read random bytes: %w", err))
	}
	token = resettoken.RawToken(base64.RawURLEncoding.EncodeToString(b))
	return token, h.Hash(token), nil
}

func (h *HMAC) Hash(token resettoken.RawToken) resettoken.Hash {
	hasher := hmac.New(sha256.New, h.secretKey)
	io.WriteString(hasher, string(token))
	return resettoken.Hash(hex.EncodeToString(hasher.Sum(nil)))
}
