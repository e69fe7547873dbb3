package utils_test

import (
	"testing"

	"github.com/SantiagoArteche/ober-api/utils"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("HashPassword() returned the plain text password")
	}

	if !utils.CheckPassword("s3cret", hash) {
		t.Error("CheckPassword() = false for the right password")
	}
	if utils.CheckPassword("wrong", hash) {
		t.Error("CheckPassword() = true for the wrong password")
	}
}
