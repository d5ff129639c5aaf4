package auth

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)
	userID := primitive.NewObjectID()

	token, err := manager.GenerateToken(userID, "alice")
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	claims, err := manager.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("claims user id = %s, want %s", claims.UserID.Hex(), userID.Hex())
	}
	if claims.Username != "alice" {
		t.Errorf("claims username = %q, want alice", claims.Username)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("secret-one", time.Minute)
	other := NewJWTManager("secret-two", time.Minute)

	token, err := manager.GenerateToken(primitive.NewObjectID(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret validated, want error")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)

	token, err := manager.GenerateToken(primitive.NewObjectID(), "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := manager.ValidateToken(token); err == nil {
		t.Error("expired token validated, want error")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Minute)

	if _, err := manager.ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token validated, want error")
	}
}
