package infra

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericToInt64(t *testing.T) {
	t.Run("simple value", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(85000), Exp: 0, Valid: true}
		v, err := NumericToInt64(n)
		require.NoError(t, err)
		assert.Equal(t, int64(85000), v)
	})

	t.Run("positive exponent expands", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(85), Exp: 3, Valid: true}
		v, err := NumericToInt64(n)
		require.NoError(t, err)
		assert.Equal(t, int64(85000), v)
	})

	t.Run("negative exponent truncates", func(t *testing.T) {
		n := pgtype.Numeric{Int: big.NewInt(8599), Exp: -2, Valid: true}
		v, err := NumericToInt64(n)
		require.NoError(t, err)
		assert.Equal(t, int64(85), v)
	})

	t.Run("null errors", func(t *testing.T) {
		_, err := NumericToInt64(pgtype.Numeric{Valid: false})
		require.Error(t, err)
	})

	t.Run("overflow errors", func(t *testing.T) {
		huge := new(big.Int).Lsh(big.NewInt(1), 70)
		_, err := NumericToInt64(pgtype.Numeric{Int: huge, Exp: 0, Valid: true})
		require.Error(t, err)
	})
}

func TestInt64ToNumeric_RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 25000, 85000, 1<<62 - 1} {
		n := Int64ToNumeric(v)
		got, err := NumericToInt64(n)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
