package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/realty"
	"github.com/fwojciec/realty/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCounter_CountTokens(t *testing.T) {
	t.Parallel()

	tc, err := gemini.NewTokenCounter(gemini.DefaultModel)
	require.NoError(t, err)

	var _ realty.TokenCounter = tc

	t.Run("counts tokens in text", func(t *testing.T) {
		t.Parallel()

		count, err := tc.CountTokens(context.Background(), "Median price in Globe rose to $285,000.")

		require.NoError(t, err)
		assert.Positive(t, count)
	})

	t.Run("empty string returns zero", func(t *testing.T) {
		t.Parallel()

		count, err := tc.CountTokens(context.Background(), "")

		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("longer text returns more tokens", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		shortCount, err := tc.CountTokens(ctx, "Globe")
		require.NoError(t, err)

		longCount, err := tc.CountTokens(ctx, "Globe is a small mining town east of Phoenix whose housing market has grown steadily as buyers look beyond the valley.")
		require.NoError(t, err)

		assert.Greater(t, longCount, shortCount)
	})

	t.Run("canceled context returns error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := tc.CountTokens(ctx, "Globe")

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewTokenCounter_UnknownModel(t *testing.T) {
	t.Parallel()

	_, err := gemini.NewTokenCounter("not-a-model")

	assert.Equal(t, realty.EINVALID, realty.ErrorCode(err))
}
