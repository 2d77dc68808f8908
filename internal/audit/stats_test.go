package audit

import (
	"math"
	"testing"

	"github.com/PolarWolf314/lockbox/internal/configs"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompareAlgorithms(t *testing.T) {
	entries := []Entry{
		{Operation: OpUpload, Algorithm: "AES", ExecutionTime: 0.2, Success: true},
		{Operation: OpUpload, Algorithm: "AES", ExecutionTime: 0.4, Success: true},
		{Operation: OpDecrypt, Algorithm: "AES", ExecutionTime: 0.1, Success: true},
		{Operation: OpUpload, Algorithm: "RC4", ExecutionTime: 0.05, Success: true},
		{Operation: OpDecrypt, Algorithm: "DES", ExecutionTime: 9, Success: false},
		{Operation: OpGrant, Algorithm: "AES", ExecutionTime: 5, Success: true},
		{Operation: OpUpload, Algorithm: "XOR", ExecutionTime: 1, Success: true},
	}

	got := CompareAlgorithms(entries)
	if len(got) != 3 {
		t.Fatalf("Expected 3 algorithms, got %d", len(got))
	}

	aes, des, rc4 := got[0], got[1], got[2]
	if aes.Algorithm != "AES" || des.Algorithm != "DES" || rc4.Algorithm != "RC4" {
		t.Fatalf("unexpected order %s %s %s", aes.Algorithm, des.Algorithm, rc4.Algorithm)
	}
	if aes.EncryptCount != 2 || !approx(aes.AvgEncryptSeconds, 0.3) {
		t.Errorf("AES encrypt = %d, %v", aes.EncryptCount, aes.AvgEncryptSeconds)
	}
	if aes.DecryptCount != 1 || !approx(aes.AvgDecryptSeconds, 0.1) {
		t.Errorf("AES decrypt = %d, %v", aes.DecryptCount, aes.AvgDecryptSeconds)
	}
	if des.DecryptCount != 0 || des.AvgDecryptSeconds != 0 {
		t.Errorf("failed entries should be ignored: %+v", des)
	}
	if rc4.EncryptCount != 1 || !approx(rc4.AvgEncryptSeconds, 0.05) {
		t.Errorf("RC4 encrypt = %d, %v", rc4.EncryptCount, rc4.AvgEncryptSeconds)
	}
}

func TestCompareSizes(t *testing.T) {
	files := map[string]configs.FileRecord{
		"a": {Algorithm: "AES", PlainSize: 10, CipherSize: 16},
		"b": {Algorithm: "AES", PlainSize: 30, CipherSize: 32},
		"c": {Algorithm: "RC4", PlainSize: 100, CipherSize: 100},
		"d": {Algorithm: "DES", PlainSize: 0, CipherSize: 8},
	}

	got := CompareSizes(files)
	aes, des, rc4 := got[0], got[1], got[2]

	if aes.Count != 2 || !approx(aes.AvgPlainSize, 20) || !approx(aes.AvgCipherSize, 24) || !approx(aes.OverheadPercent, 20) {
		t.Errorf("AES sizes = %+v", aes)
	}
	if rc4.OverheadPercent != 0 {
		t.Errorf("RC4 should have no overhead, got %v", rc4.OverheadPercent)
	}
	if des.Count != 1 || des.OverheadPercent != 0 {
		t.Errorf("zero-size plaintext should report no overhead, got %+v", des)
	}
}

func TestStats(t *testing.T) {
	entries := []Entry{
		{UserUUID: "alice", Operation: OpUpload, DataSize: 100, Success: true},
		{UserUUID: "alice", Operation: OpUpload, DataSize: 50, Success: true},
		{UserUUID: "alice", Operation: OpDecrypt, DataSize: 100, Success: true},
		{UserUUID: "alice", Operation: OpGrant, Success: true},
		{UserUUID: "alice", Operation: OpRevoke, Success: true},
		{UserUUID: "alice", Operation: OpDecrypt, Success: false},
		{UserUUID: "bob", Operation: OpUpload, DataSize: 1000, Success: true},
	}

	got := Stats(entries, "alice")
	want := UserStats{Uploads: 2, Decrypts: 1, Grants: 1, Revokes: 1, Failures: 1, BytesEncrypted: 150, BytesDecrypted: 100}
	if got != want {
		t.Errorf("Stats = %+v, want %+v", got, want)
	}
}
