package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
)

// Fingerprint returns a deterministic hex digest of an ordered message
// sequence, used as a response cache key. The digest is order sensitive:
// the same messages in a different order produce a different fingerprint.
// Role and text are length framed so adjacent fields can never collide by
// concatenation.
func Fingerprint(msgs []Message) string {
	h := sha256.New()
	for _, m := range msgs {
		writeField(h, string(m.Role))
		writeField(h, m.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, s string) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	io.WriteString(h, s)
}
