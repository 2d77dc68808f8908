package envelope

import (
	"context"
	"errors"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/ciphers"
	"github.com/PolarWolf314/lockbox/internal/keystore"
)

var errDiskFull = errors.New("disk full")

// faultyStore wraps a Memory store with hooks for injecting failures.
type faultyStore struct {
	*keystore.Memory
	// afterGetPublicKey runs once the public key has been read.
	afterGetPublicKey func()
	failSharedPut     bool
	failOwnerPut      bool
	sharedPuts        int
}

func (f *faultyStore) GetPublicKey(ctx context.Context, id string) ([]byte, error) {
	blob, err := f.Memory.GetPublicKey(ctx, id)
	if f.afterGetPublicKey != nil {
		f.afterGetPublicKey()
	}
	return blob, err
}

func (f *faultyStore) PutSharedEnvelope(ctx context.Context, fileID, recipientID string, blob []byte) error {
	f.sharedPuts++
	if f.failSharedPut {
		return errDiskFull
	}
	return f.Memory.PutSharedEnvelope(ctx, fileID, recipientID, blob)
}

func (f *faultyStore) PutOwnerEnvelope(ctx context.Context, fileID, ownerID string, blob []byte) error {
	if f.failOwnerPut {
		return errDiskFull
	}
	return f.Memory.PutOwnerEnvelope(ctx, fileID, ownerID, blob)
}

func newFaultyFixture(t *testing.T) (*Manager, *faultyStore, *UploadResult) {
	t.Helper()
	base, mem := newFixture(t)
	res := upload(t, base, ciphers.AES, []byte("fault injection"))

	fs := &faultyStore{Memory: mem}
	return New(fs, WithLogger(quietLogger())), fs, res
}

func TestCancelledGrantWritesNothing(t *testing.T) {
	m, fs, res := newFaultyFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel after the owner envelope is open, while the recipient key is fetched.
	fs.afterGetPublicKey = cancel

	_, err := m.Grant(ctx, GrantRequest{FileID: res.FileID, OwnerID: alice, Passphrase: alicePass, RecipientID: bob})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fs.sharedPuts != 0 {
		t.Errorf("cancelled grant attempted %d shared envelope writes", fs.sharedPuts)
	}
	if ok, _ := m.HasAccess(context.Background(), res.FileID, bob); ok {
		t.Error("cancelled grant left a shared envelope")
	}
}

func TestCancelledBeforeGrantWritesNothing(t *testing.T) {
	m, fs, res := newFaultyFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Grant(ctx, GrantRequest{FileID: res.FileID, OwnerID: alice, Passphrase: alicePass, RecipientID: bob}); err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
	if fs.sharedPuts != 0 {
		t.Errorf("cancelled grant attempted %d shared envelope writes", fs.sharedPuts)
	}
}

func TestStoreWriteFailureFailsGrant(t *testing.T) {
	m, fs, res := newFaultyFixture(t)
	fs.failSharedPut = true

	_, err := m.Grant(context.Background(), GrantRequest{FileID: res.FileID, OwnerID: alice, Passphrase: alicePass, RecipientID: bob})
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected store error, got %v", err)
	}
	if fs.sharedPuts != 1 {
		t.Errorf("expected exactly one write attempt, got %d", fs.sharedPuts)
	}
	if ok, _ := m.HasAccess(context.Background(), res.FileID, bob); ok {
		t.Error("failed grant left a shared envelope")
	}
}

func TestStoreWriteFailureFailsUpload(t *testing.T) {
	m, fs, _ := newFaultyFixture(t)
	fs.failOwnerPut = true

	_, err := m.Upload(context.Background(), UploadRequest{FileID: "f-fail", OwnerID: alice, Algorithm: ciphers.AES, Plaintext: []byte("x")})
	if !errors.Is(err, errDiskFull) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := fs.Memory.GetOwnerEnvelope(context.Background(), "f-fail", alice); !errors.Is(err, keystore.ErrNotFound) {
		t.Error("failed upload left an owner envelope")
	}
}
