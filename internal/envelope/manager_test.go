package envelope

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/ciphers"
	kerrors "github.com/PolarWolf314/lockbox/internal/errors"
	"github.com/PolarWolf314/lockbox/internal/keystore"
	logger "github.com/PolarWolf314/lockbox/internal/logging"
)

const (
	alice = "alice-uuid"
	bob   = "bob-uuid"
	carol = "carol-uuid"
)

var (
	alicePass = []byte("alice-passphrase")
	bobPass   = []byte("bob-passphrase")
	carolPass = []byte("carol-passphrase")
)

func quietLogger() logger.Logger {
	return logger.Logger{Debug: true, Out: io.Discard, Err: io.Discard}
}

// newFixture provisions alice, bob and carol in a fresh in-memory store.
func newFixture(t *testing.T) (*Manager, *keystore.Memory) {
	t.Helper()
	store := keystore.NewMemory()
	m := New(store, WithLogger(quietLogger()))

	ctx := context.Background()
	for id, pass := range map[string][]byte{alice: alicePass, bob: bobPass, carol: carolPass} {
		if _, err := m.Provision(ctx, id, pass); err != nil {
			t.Fatalf("Provision(%s) failed: %v", id, err)
		}
	}
	return m, store
}

func upload(t *testing.T, m *Manager, alg ciphers.Algorithm, plaintext []byte) *UploadResult {
	t.Helper()
	res, err := m.Upload(context.Background(), UploadRequest{
		OwnerID:   alice,
		Algorithm: alg,
		Plaintext: plaintext,
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	return res
}

func decrypt(m *Manager, res *UploadResult, requester string, pass []byte, role Role) ([]byte, error) {
	iv, _ := hex.DecodeString(res.IVHex)
	out, err := m.Decrypt(context.Background(), DecryptRequest{
		FileID:      res.FileID,
		RequesterID: requester,
		Passphrase:  pass,
		Role:        role,
		Algorithm:   res.Algorithm,
		Ciphertext:  res.Ciphertext,
		IV:          iv,
	})
	if err != nil {
		return nil, err
	}
	return out.Plaintext, nil
}

func TestShareAndRevokeEndToEnd(t *testing.T) {
	m, store := newFixture(t)
	ctx := context.Background()

	for _, alg := range ciphers.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			res := upload(t, m, alg, []byte("HELLOWORLD"))

			if alg == ciphers.RC4 {
				if res.IVHex != "" || res.Mode != "" {
					t.Errorf("RC4 should record no IV or mode, got %q %q", res.IVHex, res.Mode)
				}
			} else if res.Mode != "CBC" || res.IVHex == "" {
				t.Errorf("%s should record CBC mode and an IV, got %q %q", alg, res.Mode, res.IVHex)
			}

			got, err := decrypt(m, res, alice, alicePass, RoleOwner)
			if err != nil {
				t.Fatalf("owner decrypt failed: %v", err)
			}
			if string(got) != "HELLOWORLD" {
				t.Errorf("owner decrypt = %q", got)
			}

			if _, err := m.Grant(ctx, GrantRequest{FileID: res.FileID, OwnerID: alice, Passphrase: alicePass, RecipientID: bob}); err != nil {
				t.Fatalf("Grant failed: %v", err)
			}

			ownerEnv, err := store.GetOwnerEnvelope(ctx, res.FileID, alice)
			if err != nil {
				t.Fatalf("GetOwnerEnvelope failed: %v", err)
			}
			sharedEnv, err := store.GetSharedEnvelope(ctx, res.FileID, bob)
			if err != nil {
				t.Fatalf("GetSharedEnvelope failed: %v", err)
			}
			if bytes.Equal(ownerEnv, sharedEnv) {
				t.Error("owner and shared envelopes should differ")
			}
			if len(sharedEnv) != 256 {
				t.Errorf("shared envelope is %d bytes, want 256", len(sharedEnv))
			}

			got, err = decrypt(m, res, bob, bobPass, RoleDelegate)
			if err != nil {
				t.Fatalf("delegate decrypt failed: %v", err)
			}
			if string(got) != "HELLOWORLD" {
				t.Errorf("delegate decrypt = %q", got)
			}

			if err := m.Revoke(ctx, res.FileID, bob); err != nil {
				t.Fatalf("Revoke failed: %v", err)
			}
			if _, err := decrypt(m, res, bob, bobPass, RoleDelegate); !errors.Is(err, kerrors.ErrEnvelopeMissing) {
				t.Errorf("expected ErrEnvelopeMissing after revoke, got %v", err)
			}
		})
	}
}

func TestRegrantIsIdempotent(t *testing.T) {
	m, store := newFixture(t)
	ctx := context.Background()
	res := upload(t, m, ciphers.AES, []byte("payload"))

	req := GrantRequest{FileID: res.FileID, OwnerID: alice, Passphrase: alicePass, RecipientID: bob}

	first, err := m.Grant(ctx, req)
	if err != nil {
		t.Fatalf("first Grant failed: %v", err)
	}
	if first.Replaced {
		t.Error("first grant should not report a replacement")
	}
	before, _ := store.GetSharedEnvelope(ctx, res.FileID, bob)

	second, err := m.Grant(ctx, req)
	if err != nil {
		t.Fatalf("second Grant failed: %v", err)
	}
	if !second.Replaced {
		t.Error("second grant should report a replacement")
	}
	after, _ := store.GetSharedEnvelope(ctx, res.FileID, bob)

	if bytes.Equal(before, after) {
		t.Error("re-grant should store a fresh wrap")
	}

	recipients, err := m.Recipients(ctx, res.FileID)
	if err != nil {
		t.Fatalf("Recipients failed: %v", err)
	}
	if len(recipients) != 1 || recipients[0] != bob {
		t.Errorf("Recipients = %v, want [%s]", recipients, bob)
	}

	got, err := decrypt(m, res, bob, bobPass, RoleDelegate)
	if err != nil || string(got) != "payload" {
		t.Errorf("delegate decrypt after re-grant = %q, %v", got, err)
	}
}

func TestRevokeThenRegrant(t *testing.T) {
	m, _ := newFixture(t)
	ctx := context.Background()
	res := upload(t, m, ciphers.DES, []byte("round and round"))
	req := GrantRequest{FileID: res.FileID, OwnerID: alice, Passphrase: alicePass, RecipientID: bob}

	if _, err := m.Grant(ctx, req); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}
	if err := m.Revoke(ctx, res.FileID, bob); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if ok, _ := m.HasAccess(ctx, res.FileID, bob); ok {
		t.Error("bob should have no access after revoke")
	}

	if _, err := m.Grant(ctx, req); err != nil {
		t.Fatalf("re-grant failed: %v", err)
	}
	if ok, _ := m.HasAccess(ctx, res.FileID, bob); !ok {
		t.Error("bob should have access after re-grant")
	}
	got, err := decrypt(m, res, bob, bobPass, RoleDelegate)
	if err != nil || string(got) != "round and round" {
		t.Errorf("delegate decrypt = %q, %v", got, err)
	}
}

func TestRevokeWithoutEnvelope(t *testing.T) {
	m, _ := newFixture(t)
	res := upload(t, m, ciphers.AES, []byte("x"))

	err := m.Revoke(context.Background(), res.FileID, bob)
	if !errors.Is(err, kerrors.ErrEnvelopeMissing) {
		t.Errorf("expected ErrEnvelopeMissing, got %v", err)
	}
}

func TestGrantFailures(t *testing.T) {
	m, store := newFixture(t)
	ctx := context.Background()
	res := upload(t, m, ciphers.AES, []byte("secret"))

	tests := []struct {
		name string
		req  GrantRequest
		want error
	}{
		{"self grant", GrantRequest{res.FileID, alice, alicePass, alice}, kerrors.ErrSelfGrant},
		{"bad passphrase", GrantRequest{res.FileID, alice, []byte("nope"), bob}, kerrors.ErrBadPassphrase},
		{"empty passphrase", GrantRequest{res.FileID, alice, nil, bob}, kerrors.ErrBadPassphrase},
		{"owner not provisioned", GrantRequest{res.FileID, "mallory", alicePass, bob}, kerrors.ErrIdentityKeyMissing},
		{"recipient not provisioned", GrantRequest{res.FileID, alice, alicePass, "dave"}, kerrors.ErrIdentityKeyMissing},
		{"unknown file", GrantRequest{"no-such-file", alice, alicePass, bob}, kerrors.ErrEnvelopeMissing},
		{"not the owner", GrantRequest{res.FileID, bob, bobPass, carol}, kerrors.ErrEnvelopeMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Grant(ctx, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			recipients, _ := store.ListRecipients(ctx, res.FileID)
			if len(recipients) != 0 {
				t.Errorf("failed grant left envelopes for %v", recipients)
			}
		})
	}
}

func TestUnwrapFailureIsReported(t *testing.T) {
	m, store := newFixture(t)
	ctx := context.Background()
	res := upload(t, m, ciphers.AES, []byte("secret"))

	env, _ := store.GetOwnerEnvelope(ctx, res.FileID, alice)
	env[0] ^= 0xFF
	if err := store.PutOwnerEnvelope(ctx, res.FileID, alice, env); err != nil {
		t.Fatalf("PutOwnerEnvelope failed: %v", err)
	}

	_, err := m.Grant(ctx, GrantRequest{res.FileID, alice, alicePass, bob})
	if !errors.Is(err, kerrors.ErrUnwrapFailure) {
		t.Errorf("expected ErrUnwrapFailure, got %v", err)
	}
}

func TestDecryptFailures(t *testing.T) {
	m, _ := newFixture(t)
	res := upload(t, m, ciphers.AES, []byte("secret"))

	if _, err := decrypt(m, res, alice, []byte("wrong"), RoleOwner); !errors.Is(err, kerrors.ErrBadPassphrase) {
		t.Errorf("expected ErrBadPassphrase, got %v", err)
	}
	if _, err := decrypt(m, res, bob, bobPass, RoleDelegate); !errors.Is(err, kerrors.ErrEnvelopeMissing) {
		t.Errorf("expected ErrEnvelopeMissing for ungranted delegate, got %v", err)
	}
	if _, err := decrypt(m, res, bob, bobPass, RoleOwner); !errors.Is(err, kerrors.ErrEnvelopeMissing) {
		t.Errorf("expected ErrEnvelopeMissing for non-owner, got %v", err)
	}
	if _, err := decrypt(m, res, "mallory", bobPass, RoleOwner); !errors.Is(err, kerrors.ErrIdentityKeyMissing) {
		t.Errorf("expected ErrIdentityKeyMissing, got %v", err)
	}

	bad := *res
	bad.Algorithm = "BLOWFISH"
	if _, err := decrypt(m, &bad, alice, alicePass, RoleOwner); !errors.Is(err, kerrors.ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}
}

func TestUploadFailures(t *testing.T) {
	m, store := newFixture(t)
	ctx := context.Background()

	_, err := m.Upload(ctx, UploadRequest{FileID: "f1", OwnerID: "mallory", Algorithm: ciphers.AES, Plaintext: []byte("x")})
	if !errors.Is(err, kerrors.ErrIdentityKeyMissing) {
		t.Errorf("expected ErrIdentityKeyMissing, got %v", err)
	}

	_, err = m.Upload(ctx, UploadRequest{FileID: "f2", OwnerID: alice, Algorithm: "ROT13", Plaintext: []byte("x")})
	if !errors.Is(err, kerrors.ErrUnknownAlgorithm) {
		t.Errorf("expected ErrUnknownAlgorithm, got %v", err)
	}

	for _, id := range []string{"f1", "f2"} {
		if _, err := store.GetOwnerEnvelope(ctx, id, alice); !errors.Is(err, keystore.ErrNotFound) {
			t.Errorf("failed upload %s left an owner envelope", id)
		}
	}
}

func TestUploadKeepsRequestedFileID(t *testing.T) {
	m, _ := newFixture(t)

	res, err := m.Upload(context.Background(), UploadRequest{FileID: "fixed-id", OwnerID: alice, Algorithm: ciphers.RC4, Plaintext: nil})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if res.FileID != "fixed-id" {
		t.Errorf("FileID = %q, want fixed-id", res.FileID)
	}
	if res.PlainSize != 0 || len(res.Ciphertext) != 0 {
		t.Errorf("empty upload produced %d/%d bytes", res.PlainSize, len(res.Ciphertext))
	}
	if len(res.SaltHex) != 32 {
		t.Errorf("salt is %d hex chars, want 32", len(res.SaltHex))
	}
}

func TestGrantMany(t *testing.T) {
	m, store := newFixture(t)
	ctx := context.Background()
	res := upload(t, m, ciphers.AES, []byte("shared widely"))

	results, err := m.GrantMany(ctx, GrantManyRequest{
		FileID:       res.FileID,
		OwnerID:      alice,
		Passphrase:   alicePass,
		RecipientIDs: []string{bob, carol},
	})
	if err != nil {
		t.Fatalf("GrantMany failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	for id, pass := range map[string][]byte{bob: bobPass, carol: carolPass} {
		got, err := decrypt(m, res, id, pass, RoleDelegate)
		if err != nil || string(got) != "shared widely" {
			t.Errorf("%s decrypt = %q, %v", id, got, err)
		}
	}

	// Stops at the first unknown recipient and reports earlier grants.
	other := upload(t, m, ciphers.AES, []byte("partial"))
	results, err = m.GrantMany(ctx, GrantManyRequest{
		FileID:       other.FileID,
		OwnerID:      alice,
		Passphrase:   alicePass,
		RecipientIDs: []string{bob, "dave", carol},
	})
	if !errors.Is(err, kerrors.ErrIdentityKeyMissing) {
		t.Fatalf("expected ErrIdentityKeyMissing, got %v", err)
	}
	if len(results) != 1 || results[0].RecipientID != bob {
		t.Errorf("results = %+v, want one grant for bob", results)
	}
	recipients, _ := store.ListRecipients(ctx, other.FileID)
	if len(recipients) != 1 {
		t.Errorf("recipients = %v, want only bob", recipients)
	}

	if _, err := m.GrantMany(ctx, GrantManyRequest{other.FileID, alice, alicePass, []string{carol, alice}}); !errors.Is(err, kerrors.ErrSelfGrant) {
		t.Errorf("expected ErrSelfGrant, got %v", err)
	}
}

func TestChangePassphrase(t *testing.T) {
	m, _ := newFixture(t)
	ctx := context.Background()
	res := upload(t, m, ciphers.AES, []byte("still readable"))

	before, err := m.Lookup(ctx, alice)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if err := m.ChangePassphrase(ctx, alice, []byte("wrong"), []byte("new")); !errors.Is(err, kerrors.ErrBadPassphrase) {
		t.Fatalf("expected ErrBadPassphrase, got %v", err)
	}

	newPass := []byte("a brand new passphrase")
	if err := m.ChangePassphrase(ctx, alice, alicePass, newPass); err != nil {
		t.Fatalf("ChangePassphrase failed: %v", err)
	}

	if _, err := decrypt(m, res, alice, alicePass, RoleOwner); !errors.Is(err, kerrors.ErrBadPassphrase) {
		t.Errorf("old passphrase should be rejected, got %v", err)
	}
	got, err := decrypt(m, res, alice, newPass, RoleOwner)
	if err != nil || string(got) != "still readable" {
		t.Errorf("decrypt with new passphrase = %q, %v", got, err)
	}

	after, _ := m.Lookup(ctx, alice)
	if before.Fingerprint != after.Fingerprint {
		t.Error("changing the passphrase must keep the keypair")
	}
}

func TestReprovisionInvalidatesEnvelopes(t *testing.T) {
	m, _ := newFixture(t)
	ctx := context.Background()
	res := upload(t, m, ciphers.AES, []byte("old key"))

	if _, err := m.Provision(ctx, alice, alicePass); err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if _, err := decrypt(m, res, alice, alicePass, RoleOwner); !errors.Is(err, kerrors.ErrUnwrapFailure) {
		t.Errorf("expected ErrUnwrapFailure after re-provision, got %v", err)
	}
}

func TestProvisionRejectsEmptyPassphrase(t *testing.T) {
	m := New(keystore.NewMemory())
	if _, err := m.Provision(context.Background(), "dave", nil); !errors.Is(err, kerrors.ErrBadPassphrase) {
		t.Errorf("expected ErrBadPassphrase, got %v", err)
	}
	if _, err := m.Lookup(context.Background(), "dave"); !errors.Is(err, kerrors.ErrIdentityKeyMissing) {
		t.Errorf("failed provision should store nothing, got %v", err)
	}
}

func TestRoleString(t *testing.T) {
	if RoleOwner.String() != "owner" || RoleDelegate.String() != "delegate" {
		t.Errorf("unexpected role names %s %s", RoleOwner, RoleDelegate)
	}
}
