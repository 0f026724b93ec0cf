package utils

import "testing"

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("password stored in plaintext")
	}
	if !CheckPassword(hash, "secret1") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "secret2") {
		t.Fatal("wrong password accepted")
	}
}
