// Package keystoretest is a conformance suite every keystore.Store implementation runs.
package keystoretest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/keystore"
)

// Opener returns a fresh, empty store. Run closes it when the subtest ends.
type Opener func(t *testing.T) keystore.Store

// Run exercises the keystore.Store contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s keystore.Store)
	}{
		{"MissingRecords", testMissingRecords},
		{"IdentityKeys", testIdentityKeys},
		{"OwnerEnvelope", testOwnerEnvelope},
		{"SharedEnvelopes", testSharedEnvelopes},
		{"DeleteSharedEnvelope", testDeleteSharedEnvelope},
		{"ListRecipients", testListRecipients},
		{"ValuesAreCopied", testValuesAreCopied},
		{"CancelledContext", testCancelledContext},
		{"ConcurrentWriters", testConcurrentWriters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() {
				if err := s.Close(); err != nil {
					t.Errorf("Close failed: %v", err)
				}
			})
			tt.fn(t, s)
		})
	}
}

func expectNotFound(t *testing.T, what string, err error) {
	t.Helper()
	if !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("%s: expected ErrNotFound, got %v", what, err)
	}
}

func expectBlob(t *testing.T, what string, got []byte, err error, want []byte) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s failed: %v", what, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("%s = %q, want %q", what, got, want)
	}
}

func testMissingRecords(t *testing.T, s keystore.Store) {
	ctx := context.Background()

	_, err := s.GetPublicKey(ctx, "alice")
	expectNotFound(t, "GetPublicKey", err)
	_, err = s.GetPrivateKey(ctx, "alice")
	expectNotFound(t, "GetPrivateKey", err)
	_, err = s.GetOwnerEnvelope(ctx, "file", "alice")
	expectNotFound(t, "GetOwnerEnvelope", err)
	_, err = s.GetSharedEnvelope(ctx, "file", "bob")
	expectNotFound(t, "GetSharedEnvelope", err)

	recipients, err := s.ListRecipients(ctx, "file")
	if err != nil {
		t.Fatalf("ListRecipients failed: %v", err)
	}
	if len(recipients) != 0 {
		t.Errorf("expected no recipients, got %v", recipients)
	}
}

func testIdentityKeys(t *testing.T, s keystore.Store) {
	ctx := context.Background()

	if err := s.PutPublicKey(ctx, "alice", []byte("pub-1")); err != nil {
		t.Fatalf("PutPublicKey failed: %v", err)
	}
	if err := s.PutPrivateKey(ctx, "alice", []byte("priv-1")); err != nil {
		t.Fatalf("PutPrivateKey failed: %v", err)
	}

	got, err := s.GetPublicKey(ctx, "alice")
	expectBlob(t, "GetPublicKey", got, err, []byte("pub-1"))
	got, err = s.GetPrivateKey(ctx, "alice")
	expectBlob(t, "GetPrivateKey", got, err, []byte("priv-1"))

	// Upsert replaces.
	if err := s.PutPublicKey(ctx, "alice", []byte("pub-2")); err != nil {
		t.Fatalf("PutPublicKey upsert failed: %v", err)
	}
	if err := s.PutPrivateKey(ctx, "alice", []byte("priv-2")); err != nil {
		t.Fatalf("PutPrivateKey upsert failed: %v", err)
	}
	got, err = s.GetPublicKey(ctx, "alice")
	expectBlob(t, "GetPublicKey after upsert", got, err, []byte("pub-2"))
	got, err = s.GetPrivateKey(ctx, "alice")
	expectBlob(t, "GetPrivateKey after upsert", got, err, []byte("priv-2"))

	_, err = s.GetPublicKey(ctx, "bob")
	expectNotFound(t, "GetPublicKey for other identity", err)
}

func testOwnerEnvelope(t *testing.T, s keystore.Store) {
	ctx := context.Background()

	if err := s.PutOwnerEnvelope(ctx, "file-1", "alice", []byte("env-a")); err != nil {
		t.Fatalf("PutOwnerEnvelope failed: %v", err)
	}

	got, err := s.GetOwnerEnvelope(ctx, "file-1", "alice")
	expectBlob(t, "GetOwnerEnvelope", got, err, []byte("env-a"))

	_, err = s.GetOwnerEnvelope(ctx, "file-1", "bob")
	expectNotFound(t, "GetOwnerEnvelope with wrong owner", err)

	// One owner envelope per file.
	if err := s.PutOwnerEnvelope(ctx, "file-1", "bob", []byte("env-b")); err != nil {
		t.Fatalf("PutOwnerEnvelope upsert failed: %v", err)
	}
	got, err = s.GetOwnerEnvelope(ctx, "file-1", "bob")
	expectBlob(t, "GetOwnerEnvelope after upsert", got, err, []byte("env-b"))
	_, err = s.GetOwnerEnvelope(ctx, "file-1", "alice")
	expectNotFound(t, "GetOwnerEnvelope for replaced owner", err)
}

func testSharedEnvelopes(t *testing.T, s keystore.Store) {
	ctx := context.Background()

	if err := s.PutSharedEnvelope(ctx, "file-1", "bob", []byte("share-1")); err != nil {
		t.Fatalf("PutSharedEnvelope failed: %v", err)
	}
	if err := s.PutSharedEnvelope(ctx, "file-2", "bob", []byte("share-2")); err != nil {
		t.Fatalf("PutSharedEnvelope failed: %v", err)
	}

	got, err := s.GetSharedEnvelope(ctx, "file-1", "bob")
	expectBlob(t, "GetSharedEnvelope file-1", got, err, []byte("share-1"))
	got, err = s.GetSharedEnvelope(ctx, "file-2", "bob")
	expectBlob(t, "GetSharedEnvelope file-2", got, err, []byte("share-2"))

	if err := s.PutSharedEnvelope(ctx, "file-1", "bob", []byte("share-1b")); err != nil {
		t.Fatalf("PutSharedEnvelope upsert failed: %v", err)
	}
	got, err = s.GetSharedEnvelope(ctx, "file-1", "bob")
	expectBlob(t, "GetSharedEnvelope after upsert", got, err, []byte("share-1b"))

	_, err = s.GetSharedEnvelope(ctx, "file-1", "carol")
	expectNotFound(t, "GetSharedEnvelope for other recipient", err)
}

func testDeleteSharedEnvelope(t *testing.T, s keystore.Store) {
	ctx := context.Background()

	existed, err := s.DeleteSharedEnvelope(ctx, "file-1", "bob")
	if err != nil {
		t.Fatalf("DeleteSharedEnvelope failed: %v", err)
	}
	if existed {
		t.Error("delete of absent envelope reported existed")
	}

	if err := s.PutSharedEnvelope(ctx, "file-1", "bob", []byte("share")); err != nil {
		t.Fatalf("PutSharedEnvelope failed: %v", err)
	}
	if err := s.PutSharedEnvelope(ctx, "file-1", "carol", []byte("share")); err != nil {
		t.Fatalf("PutSharedEnvelope failed: %v", err)
	}

	existed, err = s.DeleteSharedEnvelope(ctx, "file-1", "bob")
	if err != nil {
		t.Fatalf("DeleteSharedEnvelope failed: %v", err)
	}
	if !existed {
		t.Error("delete of stored envelope reported not existed")
	}

	_, err = s.GetSharedEnvelope(ctx, "file-1", "bob")
	expectNotFound(t, "GetSharedEnvelope after delete", err)

	got, err := s.GetSharedEnvelope(ctx, "file-1", "carol")
	expectBlob(t, "GetSharedEnvelope for untouched recipient", got, err, []byte("share"))
}

func testListRecipients(t *testing.T, s keystore.Store) {
	ctx := context.Background()

	for _, r := range []string{"dave", "bob", "carol"} {
		if err := s.PutSharedEnvelope(ctx, "file-1", r, []byte("x")); err != nil {
			t.Fatalf("PutSharedEnvelope failed: %v", err)
		}
	}
	// A file id that shares a prefix must not leak into the listing.
	if err := s.PutSharedEnvelope(ctx, "file-10", "erin", []byte("x")); err != nil {
		t.Fatalf("PutSharedEnvelope failed: %v", err)
	}

	got, err := s.ListRecipients(ctx, "file-1")
	if err != nil {
		t.Fatalf("ListRecipients failed: %v", err)
	}
	want := []string{"bob", "carol", "dave"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("ListRecipients = %v, want %v", got, want)
	}
}

func testValuesAreCopied(t *testing.T, s keystore.Store) {
	ctx := context.Background()

	in := []byte("original")
	if err := s.PutPublicKey(ctx, "alice", in); err != nil {
		t.Fatalf("PutPublicKey failed: %v", err)
	}
	in[0] = 'X'

	out, err := s.GetPublicKey(ctx, "alice")
	expectBlob(t, "GetPublicKey", out, err, []byte("original"))
	out[0] = 'Y'

	again, err := s.GetPublicKey(ctx, "alice")
	expectBlob(t, "GetPublicKey after caller mutation", again, err, []byte("original"))
}

func testCancelledContext(t *testing.T, s keystore.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.PutSharedEnvelope(ctx, "file-1", "bob", []byte("share")); err == nil {
		t.Error("expected error for cancelled context")
	}

	_, err := s.GetSharedEnvelope(context.Background(), "file-1", "bob")
	expectNotFound(t, "GetSharedEnvelope after cancelled put", err)
}

func testConcurrentWriters(t *testing.T, s keystore.Store) {
	ctx := context.Background()
	values := [][]byte{
		bytes.Repeat([]byte{'a'}, 256),
		bytes.Repeat([]byte{'b'}, 256),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%3 == 2 {
				if _, err := s.DeleteSharedEnvelope(ctx, "file-1", "bob"); err != nil {
					t.Errorf("DeleteSharedEnvelope failed: %v", err)
				}
				return
			}
			if err := s.PutSharedEnvelope(ctx, "file-1", "bob", values[i%2]); err != nil {
				t.Errorf("PutSharedEnvelope failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.GetSharedEnvelope(ctx, "file-1", "bob")
	if errors.Is(err, keystore.ErrNotFound) {
		return
	}
	if err != nil {
		t.Fatalf("GetSharedEnvelope failed: %v", err)
	}
	if !bytes.Equal(got, values[0]) && !bytes.Equal(got, values[1]) {
		t.Error("concurrent writes produced a torn value")
	}
}
