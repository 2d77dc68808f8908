package sqlitedb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/keystore"
	"github.com/PolarWolf314/lockbox/internal/keystore/keystoretest"
)

func TestConformance(t *testing.T) {
	keystoretest.Run(t, func(t *testing.T) keystore.Store {
		s, err := Open(filepath.Join(t.TempDir(), "keystore.db"))
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return s
	})
}

func TestPublicKeyRowDoesNotImplyPrivateKey(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if err := s.PutPublicKey(ctx, "alice", []byte("pub")); err != nil {
		t.Fatalf("PutPublicKey failed: %v", err)
	}
	if _, err := s.GetPrivateKey(ctx, "alice"); !errors.Is(err, keystore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.PutPrivateKey(ctx, "alice", []byte("priv")); err != nil {
		t.Fatalf("PutPrivateKey failed: %v", err)
	}
	got, err := s.GetPublicKey(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPublicKey failed: %v", err)
	}
	if string(got) != "pub" {
		t.Errorf("private key upsert clobbered public key: %q", got)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keystore.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.PutSharedEnvelope(ctx, "file-1", "bob", []byte("share")); err != nil {
		t.Fatalf("PutSharedEnvelope failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	recipients, err := s.ListRecipients(ctx, "file-1")
	if err != nil {
		t.Fatalf("ListRecipients failed: %v", err)
	}
	if len(recipients) != 1 || recipients[0] != "bob" {
		t.Errorf("ListRecipients = %v, want [bob]", recipients)
	}
}
