package core

import "testing"

func TestAuthorizerAllowlist(t *testing.T) {
	relayer := testAddr(1)
	other := testAddr(2)
	a := NewAuthorizer([]Address{relayer}, nil)
	if !a.IsRelayer(relayer) {
		t.Fatal("relayer should be allowlisted")
	}
	if a.IsRelayer(other) {
		t.Fatal("non-allowlisted address must not pass IsRelayer")
	}
	if err := a.RequireRelayer(other); err == nil {
		t.Fatal("RequireRelayer must fail for a non-allowlisted address")
	}
}

func TestAuthorizerImmutableWithoutAdmin(t *testing.T) {
	a := NewAuthorizer(nil, nil)
	if err := a.AddRelayer(testAddr(1), testAddr(2)); err == nil {
		t.Fatal("AddRelayer must fail when no admin is configured")
	}
}

func TestAuthorizerAdminCanRotateAllowlist(t *testing.T) {
	admin := testAddr(9)
	a := NewAuthorizer(nil, &admin)
	newRelayer := testAddr(5)
	if err := a.AddRelayer(admin, newRelayer); err != nil {
		t.Fatalf("AddRelayer by admin: %v", err)
	}
	if !a.IsRelayer(newRelayer) {
		t.Fatal("relayer should be allowlisted after AddRelayer")
	}
	if err := a.RemoveRelayer(admin, newRelayer); err != nil {
		t.Fatalf("RemoveRelayer by admin: %v", err)
	}
	if a.IsRelayer(newRelayer) {
		t.Fatal("relayer should be removed after RemoveRelayer")
	}
}

func TestAuthorizerRejectsNonAdminMutation(t *testing.T) {
	admin := testAddr(9)
	a := NewAuthorizer(nil, &admin)
	if err := a.AddRelayer(testAddr(1), testAddr(2)); err == nil {
		t.Fatal("AddRelayer by a non-admin caller must fail")
	}
}
