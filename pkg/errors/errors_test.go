package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGachaErrorMessageAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := NewGachaError("snapshot unavailable", CodeGachaError, 503, nil).WithCause(cause)

	assert.Equal(t, "snapshot unavailable: dial tcp: refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "plain", NewGachaError("plain", CodeGachaError, 500, nil).Error())
}

func TestTypedErrorsCarryContext(t *testing.T) {
	fetchErr := NewFetchError("failed to fetch wiki page", "history", "http://wiki/h", fmt.Errorf("timeout"))
	assert.Equal(t, CodeFetch, fetchErr.Code)
	assert.Equal(t, "history", fetchErr.Context["source"])

	parseErr := NewParseError("failed to parse banner table", "archive", 4, nil)
	assert.Equal(t, 4, parseErr.TableIndex)
	assert.Equal(t, CodeParse, parseErr.Code)

	cacheErr := NewCacheError("get failed", "get", "k", nil)
	assert.Equal(t, "get", cacheErr.Operation)

	valErr := NewValidationError("bad port", "SERVER_PORT", 0)
	assert.Equal(t, "SERVER_PORT", valErr.Field)
}

func TestPipelineErrorUnwrapsToCause(t *testing.T) {
	fetchErr := NewFetchError("failed to fetch wiki page", "archive", "http://wiki/a", fmt.Errorf("reset"))
	err := NewPipelineError("unable to fetch gacha data", 3, fetchErr)

	var target *FetchError
	require.True(t, stderrors.As(err, &target))
	assert.Equal(t, "archive", target.Source)
	assert.Equal(t, 3, err.Attempts)
}

func TestStatusCode(t *testing.T) {
	fetchErr := NewFetchError("failed", "history", "", nil)

	assert.Equal(t, 502, StatusCode(fetchErr, 500))
	assert.Equal(t, 502, StatusCode(fmt.Errorf("wrapped: %w", fetchErr), 500))
	assert.Equal(t, 500, StatusCode(NewPipelineError("x", 1, fetchErr), 0), "outermost typed error wins")
	assert.Equal(t, 400, StatusCode(NewValidationError("bad", "f", 1), 500))
	assert.Equal(t, 418, StatusCode(fmt.Errorf("plain"), 418))
	assert.Equal(t, 418, StatusCode(nil, 418))
}
