package audit

import (
	"github.com/PolarWolf314/lockbox/internal/ciphers"
	"github.com/PolarWolf314/lockbox/internal/configs"
)

// AlgorithmTiming averages successful cipher timings for one algorithm.
type AlgorithmTiming struct {
	Algorithm         string  `json:"algorithm"`
	EncryptCount      int     `json:"encrypt_count"`
	DecryptCount      int     `json:"decrypt_count"`
	AvgEncryptSeconds float64 `json:"avg_encrypt_seconds"`
	AvgDecryptSeconds float64 `json:"avg_decrypt_seconds"`
}

// AlgorithmSize compares plaintext and ciphertext sizes for one algorithm.
type AlgorithmSize struct {
	Algorithm       string  `json:"algorithm"`
	Count           int     `json:"count"`
	AvgPlainSize    float64 `json:"avg_plain_size"`
	AvgCipherSize   float64 `json:"avg_cipher_size"`
	OverheadPercent float64 `json:"overhead_percent"`
}

// UserStats summarizes one user's activity.
type UserStats struct {
	Uploads        int   `json:"uploads"`
	Decrypts       int   `json:"decrypts"`
	Grants         int   `json:"grants"`
	Revokes        int   `json:"revokes"`
	Failures       int   `json:"failures"`
	BytesEncrypted int64 `json:"bytes_encrypted"`
	BytesDecrypted int64 `json:"bytes_decrypted"`
}

// CompareAlgorithms averages upload and decrypt timings per algorithm.
// Every supported algorithm appears in the result, in display order.
func CompareAlgorithms(entries []Entry) []AlgorithmTiming {
	type sums struct {
		encCount, decCount int
		encTime, decTime   float64
	}
	byAlg := make(map[string]*sums)
	for _, alg := range ciphers.Algorithms {
		byAlg[string(alg)] = &sums{}
	}

	for _, e := range entries {
		if !e.Success {
			continue
		}
		s, ok := byAlg[e.Algorithm]
		if !ok {
			continue
		}
		switch e.Operation {
		case OpUpload:
			s.encCount++
			s.encTime += e.ExecutionTime
		case OpDecrypt:
			s.decCount++
			s.decTime += e.ExecutionTime
		}
	}

	out := make([]AlgorithmTiming, 0, len(ciphers.Algorithms))
	for _, alg := range ciphers.Algorithms {
		s := byAlg[string(alg)]
		t := AlgorithmTiming{
			Algorithm:    string(alg),
			EncryptCount: s.encCount,
			DecryptCount: s.decCount,
		}
		if s.encCount > 0 {
			t.AvgEncryptSeconds = s.encTime / float64(s.encCount)
		}
		if s.decCount > 0 {
			t.AvgDecryptSeconds = s.decTime / float64(s.decCount)
		}
		out = append(out, t)
	}
	return out
}

// CompareSizes computes the average ciphertext overhead per algorithm from file records.
func CompareSizes(files map[string]configs.FileRecord) []AlgorithmSize {
	type sums struct {
		count         int
		plain, cipher int64
	}
	byAlg := make(map[string]*sums)
	for _, alg := range ciphers.Algorithms {
		byAlg[string(alg)] = &sums{}
	}

	for _, f := range files {
		s, ok := byAlg[f.Algorithm]
		if !ok {
			continue
		}
		s.count++
		s.plain += f.PlainSize
		s.cipher += f.CipherSize
	}

	out := make([]AlgorithmSize, 0, len(ciphers.Algorithms))
	for _, alg := range ciphers.Algorithms {
		s := byAlg[string(alg)]
		sz := AlgorithmSize{Algorithm: string(alg), Count: s.count}
		if s.count > 0 {
			sz.AvgPlainSize = float64(s.plain) / float64(s.count)
			sz.AvgCipherSize = float64(s.cipher) / float64(s.count)
			if sz.AvgPlainSize > 0 {
				sz.OverheadPercent = (sz.AvgCipherSize - sz.AvgPlainSize) / sz.AvgPlainSize * 100
			}
		}
		out = append(out, sz)
	}
	return out
}

// Stats summarizes the entries recorded for userUUID.
func Stats(entries []Entry, userUUID string) UserStats {
	var s UserStats
	for _, e := range entries {
		if e.UserUUID != userUUID {
			continue
		}
		if !e.Success {
			s.Failures++
			continue
		}
		switch e.Operation {
		case OpUpload:
			s.Uploads++
			s.BytesEncrypted += e.DataSize
		case OpDecrypt:
			s.Decrypts++
			s.BytesDecrypted += e.DataSize
		case OpGrant:
			s.Grants++
		case OpRevoke:
			s.Revokes++
		}
	}
	return s
}
