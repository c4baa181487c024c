package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsduel/internal/storage"
	"github.com/mcoot/rpsduel/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.ProfileStoreSuite{
		NewStore: func(*testing.T) storage.ProfileStore { return New() },
	})
}
