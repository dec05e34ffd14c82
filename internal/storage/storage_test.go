// internal/storage/storage_test.go
package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gymjs/muscle-selector/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestErrNotFoundWraps(t *testing.T) {
	err := fmt.Errorf("loading layout: %w", storage.ErrNotFound)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
