package core

import (
	"fmt"
	"math"
	"testing"
)

func TestBucket_Deterministic(t *testing.T) {
	userID := UserID("user-42")
	testID := TestID("checkout-test")

	first := Bucket(userID, testID, SaltVariant)
	for i := 0; i < 100; i++ {
		if got := Bucket(userID, testID, SaltVariant); got != first {
			t.Fatalf("Bucket() not deterministic: got %d, want %d", got, first)
		}
	}
}

func TestBucket_Range(t *testing.T) {
	for i := 0; i < 10000; i++ {
		userID := UserID(fmt.Sprintf("user-%d", i))
		b := Bucket(userID, "test-1", SaltInclude)
		if b < 0 || b >= 100 {
			t.Fatalf("Bucket() = %d, want [0,100)", b)
		}
	}
}

func TestBucket_SaltsAreIndependent(t *testing.T) {
	// The same user must be able to land in different buckets for
	// inclusion versus variant selection, otherwise the two decisions
	// would be coupled.
	differ := 0
	for i := 0; i < 1000; i++ {
		userID := UserID(fmt.Sprintf("user-%d", i))
		if Bucket(userID, "test-1", SaltInclude) != Bucket(userID, "test-1", SaltVariant) {
			differ++
		}
	}
	if differ < 900 {
		t.Errorf("expected salts to decorrelate buckets, only %d/1000 differ", differ)
	}
}

func TestBucket_Uniformity(t *testing.T) {
	const n = 100000
	counts := make([]int, 100)
	for i := 0; i < n; i++ {
		userID := UserID(fmt.Sprintf("user-%06d", i))
		counts[Bucket(userID, "uniformity-test", SaltVariant)]++
	}

	// each bucket should hold ~1% of users; allow generous slack
	expected := float64(n) / 100
	for b, c := range counts {
		if math.Abs(float64(c)-expected)/expected > 0.25 {
			t.Errorf("bucket %d holds %d users, expected ~%.0f", b, c, expected)
		}
	}
}

func TestBucket_DiffersAcrossTests(t *testing.T) {
	// The test id participates in the hash, so one user does not land
	// in the same bucket for every experiment.
	same := 0
	for i := 0; i < 1000; i++ {
		userID := UserID(fmt.Sprintf("user-%d", i))
		if Bucket(userID, "test-a", SaltVariant) == Bucket(userID, "test-b", SaltVariant) {
			same++
		}
	}
	if same > 100 {
		t.Errorf("buckets identical across tests for %d/1000 users", same)
	}
}
