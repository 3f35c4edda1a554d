// Package hash provides the checksum helper used by the debug tooling to
// fingerprint a table topology dump.
package hash

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// Sum16 returns a 16-byte BLAKE3 digest of input as a hex string. Used to
// fingerprint a topology dump so two operators can confirm they're looking
// at the same snapshot without diffing the whole dump.
func Sum16(input []byte) string {
	hasher := blake3.New()
	_, _ = hasher.Write(input)
	var buf [16]byte
	_, _ = hasher.Digest().Read(buf[:])
	return fmt.Sprintf("%x", buf)
}
