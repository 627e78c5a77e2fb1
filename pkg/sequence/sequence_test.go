package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	assert.Equal(t, "IT-000001", Next("IT-", ""))
	assert.Equal(t, "IT-000124", Next("IT-", "IT-000123"))
	assert.Equal(t, "IT-001000", Next("IT-", "IT-000999"))
}

func TestNextCaseInsensitivePrefix(t *testing.T) {
	assert.Equal(t, "IT-000008", Next("IT-", "it-000007"))
}

func TestNextUnparsableLatest(t *testing.T) {
	assert.Equal(t, "IT-000001", Next("IT-", "IT-draft"))
	assert.Equal(t, "IT-000001", Next("IT-", "garbage"))
}

func TestNextOverflowsPadWidth(t *testing.T) {
	assert.Equal(t, "IT-1000000", Next("IT-", "IT-999999"))
}
