package core

import (
	"hash/fnv"
)

// Bucketing salts. Inclusion gating and variant selection reuse the same
// hash with different salts so the two decisions are independent.
const (
	SaltInclude = "include"
	SaltVariant = "variant"
)

// Bucket maps a (user, test, salt) triple to an integer in [0, 100).
// It is pure and stable across processes and restarts: the same inputs
// always produce the same bucket, which is what makes assignment
// reproducible without a stored record.
func Bucket(userID UserID, testID TestID, salt string) int {
	h := fnv.New32a()
	// hash.Hash32 writes never fail
	h.Write([]byte(userID.String()))
	h.Write([]byte(testID.String()))
	h.Write([]byte(salt))
	return int(h.Sum32() % 100)
}
