package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasherHashAndVerify(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if digest == "correct horse battery staple" {
		t.Fatal("digest must not equal the plaintext")
	}

	if !hasher.Verify("correct horse battery staple", digest) {
		t.Fatal("expected matching password to verify")
	}
	if hasher.Verify("wrong password", digest) {
		t.Fatal("expected mismatched password to fail verification")
	}
}

func TestHasherSaltsDigests(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct digests for the same password")
	}
}

func TestNewHasherClampsCost(t *testing.T) {
	hasher := NewHasher(1000)
	digest, err := hasher.Hash("pw")
	if err != nil {
		t.Fatalf("hash with clamped cost: %v", err)
	}
	if !strings.HasPrefix(digest, "$2a$") {
		t.Fatalf("unexpected digest format: %s", digest)
	}
}
