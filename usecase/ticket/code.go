package ticket

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"strings"

	"github.com/dropwave/backend/domain"
)

// Claim code format: four letters, dash, four digits (e.g. "KWRT-4821").
// Letters avoid lookalikes so codes survive being read over the phone.
const (
	codeLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	codeDigits  = "0123456789"
)

// GenerateCode produces a human-enterable claim code.
func GenerateCode() (string, error) {
	letters, err := randomChars(codeLetters, 4)
	if err != nil {
		return "", err
	}
	digits, err := randomChars(codeDigits, 4)
	if err != nil {
		return "", err
	}
	return letters + "-" + digits, nil
}

func randomChars(alphabet string, n int) (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String(), nil
}

// qrPayload is the machine-scannable verification payload. The wire format
// (base64 JSON, unsigned) is confined to this file so it can be swapped for
// a signed token without touching verify or redeem logic.
type qrPayload struct {
	OrderID  string `json:"order_id"`
	Code     string `json:"code"`
	IssuedAt int64  `json:"issued_at"`
}

// EncodePayload binds order, code and issue instant into the QR payload.
func EncodePayload(orderID, code string, issuedAtUnix int64) (string, error) {
	raw, err := json.Marshal(qrPayload{OrderID: orderID, Code: code, IssuedAt: issuedAtUnix})
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodePayload extracts the claim code from a scanned QR payload.
func DecodePayload(payload string) (orderID, code string, err error) {
	raw, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return "", "", domain.WrapError(domain.ErrCodeInvalid, "malformed ticket payload", err)
	}
	var p qrPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", "", domain.WrapError(domain.ErrCodeInvalid, "malformed ticket payload", err)
	}
	if p.Code == "" {
		return "", "", domain.NewError(domain.ErrCodeInvalid, "ticket payload missing code")
	}
	return p.OrderID, p.Code, nil
}

// looksLikeClaimCode reports whether the identifier is already a bare claim code.
func looksLikeClaimCode(identifier string) bool {
	if len(identifier) != 9 || identifier[4] != '-' {
		return false
	}
	for i := 0; i < 4; i++ {
		if !strings.ContainsRune(codeLetters, rune(identifier[i])) {
			return false
		}
	}
	for i := 5; i < 9; i++ {
		if identifier[i] < '0' || identifier[i] > '9' {
			return false
		}
	}
	return true
}
