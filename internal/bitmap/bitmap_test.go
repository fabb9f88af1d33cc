package bitmap

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cloakswap/pkg/domain-errors"
)

const (
	regionBitsMask = Bitmap(0b111110)
	bucketBitsMask = Bitmap(0b111110000000000)
)

func TestBuild_SetsExactlyOneRegionAndBucketBit(t *testing.T) {
	for _, accredited := range []bool{false, true} {
		for _, region := range Regions {
			for _, bucket := range Buckets {
				b := Build(accredited, region, bucket)

				assert.Equal(t, 1, bits.OnesCount64(uint64(b&regionBitsMask)), "region bits for %s", region)
				assert.Equal(t, 1, bits.OnesCount64(uint64(b&bucketBitsMask)), "bucket bits for %s", bucket)
				assert.NotZero(t, b&(1<<region.Bit()))
				assert.NotZero(t, b&(1<<bucket.Bit()))
				assert.Equal(t, accredited, b.Accredited())

				extra := b &^ (regionBitsMask | bucketBitsMask | 1)
				assert.Zero(t, extra, "no stray bits")
			}
		}
	}
}

func TestBuild_KnownLayout(t *testing.T) {
	assert.Equal(t, Bitmap(0x803), Build(true, RegionEU, Bucket1K))
	assert.Equal(t, Bitmap(1<<2|1<<14), Build(false, RegionUS, Bucket1M))
	assert.Equal(t, Bitmap(1|1<<5|1<<10), Build(true, RegionOther, Bucket100))
}

func TestDefaultRuleMask(t *testing.T) {
	assert.Equal(t, Mask(0x803), DefaultRuleMask())
	assert.Equal(t, "0x803", DefaultRuleMask().String())

	for _, accredited := range []bool{false, true} {
		for _, region := range Regions {
			for _, bucket := range Buckets {
				want := accredited && region == RegionEU && bucket == Bucket1K
				got := Evaluate(Build(accredited, region, bucket), DefaultRuleMask())
				assert.Equal(t, want, got, "accredited=%v region=%s bucket=%s", accredited, region, bucket)
			}
		}
	}
}

func TestEvaluate(t *testing.T) {
	t.Run("zero mask is trivially satisfied", func(t *testing.T) {
		assert.True(t, Evaluate(0, 0))
		assert.True(t, Evaluate(Build(false, RegionUS, Bucket100), 0))
	})

	t.Run("containment, not equality", func(t *testing.T) {
		assert.True(t, Evaluate(Bitmap(0b1111), Mask(0b0101)))
	})

	t.Run("overlap is not enough", func(t *testing.T) {
		assert.False(t, Evaluate(Bitmap(0b0001), Mask(0b0011)))
	})

	t.Run("higher bucket does not satisfy lower bucket requirement", func(t *testing.T) {
		assert.False(t, Evaluate(Build(true, RegionEU, Bucket10K), DefaultRuleMask()))
	})
}

func TestRequirementMask(t *testing.T) {
	assert.Equal(t, DefaultRuleMask(), RequirementMask(true, RegionEU, Bucket1K))
	assert.Equal(t, Mask(1<<2), RequirementMask(false, RegionUS, 0))
	assert.Equal(t, Mask(0), RequirementMask(false, 0, 0))
}

func TestParseRegionAndBucket(t *testing.T) {
	r, err := ParseRegion(" latam ")
	require.NoError(t, err)
	assert.Equal(t, RegionLATAM, r)

	_, err = ParseRegion("MARS")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	b, err := ParseBucket("100000")
	require.NoError(t, err)
	assert.Equal(t, Bucket100K, b)

	for _, bad := range []string{"", "500", "-100", "1e3"} {
		_, err := ParseBucket(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseMask(t *testing.T) {
	tests := []struct {
		in   string
		want Mask
	}{
		{"0x803", 0x803},
		{"2051", 0x803},
		{"0", 0},
		{"0x0", 0},
		{" 0X803 ", 0x803},
	}
	for _, tt := range tests {
		got, err := ParseMask(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "0xzz", "-1", "0x1" + "0000000000000000"} {
		_, err := ParseMask(bad)
		assert.Error(t, err, bad)
	}
}

func TestRegionBitPanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() { Region(99).Bit() })
	assert.Panics(t, func() { Bucket(7).Bit() })
}
