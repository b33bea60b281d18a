package binmath

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

var binSteps = []uint16{1, 5, 10, 25, 50, 100, 200, 500, 1000}

// sampleBins picks bins across the invertible range for a step. Deeply
// negative bins underflow the Q64.64 integer encoding, so the lower end
// is clamped to where the scaled price still carries enough precision
// for the logarithm.
func sampleBins(binStepBps uint16) []int32 {
	lnStep := math.Log1p(float64(binStepBps) / BasisPointMax)
	lo := int32(-(ScaleOffset*math.Ln2 - 30) / lnStep)
	if lo < -100000 {
		lo = -100000
	}
	hi := int32(100000)

	bins := []int32{lo, -1, 0, 1, hi}
	span := int64(hi) - int64(lo)
	for i := int64(1); i < 40; i++ {
		bins = append(bins, lo+int32(span*i/40))
	}
	return bins
}

func TestPriceFromBinRejectsBadStep(t *testing.T) {
	_, err := PriceFromBin(100, 0)
	assert.Error(t, err)

	_, err = PriceFromBin(100, 10001)
	assert.Error(t, err)
}

func TestPriceFromBinZeroIsScale(t *testing.T) {
	for _, step := range binSteps {
		price, err := PriceFromBin(0, step)
		require.NoError(t, err)
		assert.Equal(t, Scale.String(), price, "bin 0 at step %d", step)
	}
}

func TestPriceFromBinKnownValue(t *testing.T) {
	// (1 + 100/10000)^1 * 2^64 = 1.01 * 2^64
	price, err := PriceFromBin(1, 100)
	require.NoError(t, err)

	want := new(big.Int).Mul(Scale, big.NewInt(101))
	want.Quo(want, big.NewInt(100))

	got, ok := new(big.Int).SetString(price, 10)
	require.True(t, ok)

	diff := new(big.Int).Sub(got, want)
	assert.LessOrEqual(t, diff.CmpAbs(big.NewInt(1)), 0, "price off by more than rounding")
}

func TestRoundTrip(t *testing.T) {
	for _, step := range binSteps {
		for _, bin := range sampleBins(step) {
			price, err := PriceFromBin(bin, step)
			require.NoError(t, err)

			got, err := BinFromPrice(price, step)
			require.NoError(t, err, "step %d bin %d price %s", step, bin, price)

			drift := int64(got) - int64(bin)
			if drift < 0 {
				drift = -drift
			}
			assert.LessOrEqual(t, drift, int64(1), "step %d bin %d recovered %d", step, bin, got)
		}
	}
}

func TestMonotonicity(t *testing.T) {
	for _, step := range binSteps {
		last := big.NewInt(-1)
		for bin := int32(-50); bin <= 50; bin++ {
			price, err := PriceFromBin(bin, step)
			require.NoError(t, err)
			cur, ok := new(big.Int).SetString(price, 10)
			require.True(t, ok)
			assert.Equal(t, 1, cur.Cmp(last), "step %d: price not increasing at bin %d", step, bin)
			last = cur
		}
	}
}

func TestBinFromPriceRejectsGarbage(t *testing.T) {
	_, err := BinFromPrice("not-a-number", 25)
	assert.Error(t, err)

	_, err = BinFromPrice("0", 25)
	assert.Error(t, err)

	_, err = BinFromPrice("18446744073709551616", 0)
	assert.Error(t, err)
}

func TestBinFromQ64Price(t *testing.T) {
	// Bin small enough for the Q64.64 price to fit a u128.
	price, err := PriceFromBin(400, 100)
	require.NoError(t, err)

	asBig, ok := new(big.Int).SetString(price, 10)
	require.True(t, ok)

	bin, err := BinFromQ64Price(uint128.FromBig(asBig), 100)
	require.NoError(t, err)

	drift := int64(bin) - 400
	if drift < 0 {
		drift = -drift
	}
	assert.LessOrEqual(t, drift, int64(1))
}
