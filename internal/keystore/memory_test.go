package keystore_test

import (
	"testing"

	"github.com/PolarWolf314/lockbox/internal/keystore"
	"github.com/PolarWolf314/lockbox/internal/keystore/keystoretest"
)

func TestMemoryConformance(t *testing.T) {
	keystoretest.Run(t, func(t *testing.T) keystore.Store {
		return keystore.NewMemory()
	})
}
