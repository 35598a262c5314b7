package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintLen is the hex length of a row fingerprint. A truncated SHA-256
// prefix is plenty here: the fingerprint only gates a skip-if-duplicate check,
// not anything security sensitive.
const fingerprintLen = 16

// Fingerprint derives the stable content hash of one logical import row from
// its semantically stable fields. The same row in two different files hashes
// identically, which is exactly what makes re-imports skip duplicates.
func Fingerprint(phone, entryDate, total, productCell, customerName string) string {
	fields := []string{
		strings.TrimSpace(phone),
		strings.TrimSpace(entryDate),
		strings.TrimSpace(total),
		strings.TrimSpace(productCell),
		strings.TrimSpace(customerName),
	}
	sum := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}
