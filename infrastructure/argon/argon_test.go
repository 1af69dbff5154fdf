package argon

import (
	"errors"
	"strings"
	"testing"
)

var fastParams = &Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestCreateAndCompare(t *testing.T) {
	hash, err := CreateHash("Campion#123", fastParams)
	if err != nil {
		t.Fatalf("create hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected encoding %q", hash)
	}
	ok, err := ComparePasswordAndHash("Campion#123", hash)
	if err != nil {
		t.Fatalf("compare hash: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to match")
	}

	ok, err = ComparePasswordAndHash("campion#123", hash)
	if err != nil {
		t.Fatalf("compare hash wrong: %v", err)
	}
	if ok {
		t.Fatalf("expected password mismatch")
	}
}

func TestSaltsDiffer(t *testing.T) {
	a, _ := CreateHash("same", fastParams)
	b, _ := CreateHash("same", fastParams)
	if a == b {
		t.Fatalf("expected distinct salts")
	}
}

func TestRejectsEmptyPassword(t *testing.T) {
	if _, err := CreateHash("  ", nil); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestIsHashAndDecodeErrors(t *testing.T) {
	hash, _ := CreateHash("x", fastParams)
	if !IsHash(hash) {
		t.Fatalf("expected hash to be recognized")
	}
	if IsHash("Campion#123") {
		t.Fatalf("plaintext must not be recognized as a hash")
	}
	if _, err := ComparePasswordAndHash("x", "$argon2i$v=19$m=1,t=1,p=1$AA$AA"); !errors.Is(err, ErrIncompatibleVariant) {
		t.Fatalf("expected variant error, got %v", err)
	}
	if _, err := ComparePasswordAndHash("x", "$argon2id$v=16$m=1,t=1,p=1$AA$AA"); !errors.Is(err, ErrIncompatibleVersion) {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, _ := CreateHash("x", fastParams)
	if !NeedsRehash(weak, DefaultParams) {
		t.Fatalf("expected weaker hash to need rehash")
	}
	if NeedsRehash(weak, fastParams) {
		t.Fatalf("same params must not need rehash")
	}
}
