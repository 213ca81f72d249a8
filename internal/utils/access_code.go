package utils

// NewAccessCode returns the opaque 8-character code attached to a sale.
// Buyers present it at the event gate; it carries no structure and is
// stored uniquely, so a collision at insert time is retried by the
// caller with a fresh code.
func NewAccessCode() (string, error) {
	return randomHex(4) // 4 bytes -> 8 hex chars
}
