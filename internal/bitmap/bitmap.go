// Package bitmap encodes eligibility attributes into a fixed-layout bitmap and
// evaluates bitmaps against pool rule masks.
//
// Layout:
//
//	bit 0      accredited investor
//	bits 1..5  region (EU, US, APAC, LATAM, OTHER), exactly one set
//	bits 10..14 trade-size bucket (100 .. 1,000,000), exactly one set
//
// A mask passes a bitmap when every bit of the mask is present in the bitmap.
package bitmap

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	dErrors "cloakswap/pkg/domain-errors"
)

// Bitmap is a user's packed eligibility attributes.
type Bitmap uint64

// Mask is the set of bits a pool requires. Zero means "not configured".
type Mask uint64

// Region is a user's declared jurisdiction.
type Region uint8

const (
	RegionEU Region = iota + 1
	RegionUS
	RegionAPAC
	RegionLATAM
	RegionOther
)

// Regions lists every valid region in bit order.
var Regions = []Region{RegionEU, RegionUS, RegionAPAC, RegionLATAM, RegionOther}

// Bucket is a maximum trade-size tier.
type Bucket uint32

const (
	Bucket100  Bucket = 100
	Bucket1K   Bucket = 1_000
	Bucket10K  Bucket = 10_000
	Bucket100K Bucket = 100_000
	Bucket1M   Bucket = 1_000_000
)

const accreditedBit = 0

// Buckets lists every valid bucket in bit order.
var Buckets = []Bucket{Bucket100, Bucket1K, Bucket10K, Bucket100K, Bucket1M}

var regionBits = map[Region]uint{
	RegionEU:    1,
	RegionUS:    2,
	RegionAPAC:  3,
	RegionLATAM: 4,
	RegionOther: 5,
}

var regionNames = map[Region]string{
	RegionEU:    "EU",
	RegionUS:    "US",
	RegionAPAC:  "APAC",
	RegionLATAM: "LATAM",
	RegionOther: "OTHER",
}

var bucketBits = map[Bucket]uint{
	Bucket100:  10,
	Bucket1K:   11,
	Bucket10K:  12,
	Bucket100K: 13,
	Bucket1M:   14,
}

// Bit returns the bit position of the region. Panics on an invalid region;
// use ParseRegion at trust boundaries.
func (r Region) Bit() uint {
	bit, ok := regionBits[r]
	if !ok {
		panic(fmt.Sprintf("bitmap: invalid region %d", r))
	}
	return bit
}

func (r Region) Valid() bool {
	_, ok := regionBits[r]
	return ok
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// Bit returns the bit position of the bucket. Panics on an invalid bucket;
// use ParseBucket at trust boundaries.
func (b Bucket) Bit() uint {
	bit, ok := bucketBits[b]
	if !ok {
		panic(fmt.Sprintf("bitmap: invalid bucket %d", b))
	}
	return bit
}

func (b Bucket) Valid() bool {
	_, ok := bucketBits[b]
	return ok
}

func (b Bucket) String() string {
	return strconv.FormatUint(uint64(b), 10)
}

// ParseRegion accepts a region name in any case.
func ParseRegion(s string) (Region, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range regionNames {
		if name == want {
			return r, nil
		}
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown region %q", s))
}

// ParseBucket accepts the decimal bucket threshold.
func ParseBucket(s string) (Bucket, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil || !Bucket(n).Valid() {
		return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown bucket %q", s))
	}
	return Bucket(n), nil
}

// Build packs the attributes: bit 0 iff accredited, plus exactly one region
// bit and one bucket bit.
func Build(accredited bool, region Region, bucket Bucket) Bitmap {
	var b Bitmap
	if accredited {
		b |= 1 << accreditedBit
	}
	b |= 1 << region.Bit()
	b |= 1 << bucket.Bit()
	return b
}

// DefaultRuleMask requires accredited, EU, and the exact 1,000 bucket.
func DefaultRuleMask() Mask {
	return Mask(1<<accreditedBit | 1<<RegionEU.Bit() | 1<<Bucket1K.Bit())
}

// RequirementMask builds a mask from required attributes. A zero region or
// bucket adds no requirement for that dimension.
func RequirementMask(accredited bool, region Region, bucket Bucket) Mask {
	var m Mask
	if accredited {
		m |= 1 << accreditedBit
	}
	if region.Valid() {
		m |= 1 << region.Bit()
	}
	if bucket.Valid() {
		m |= 1 << bucket.Bit()
	}
	return m
}

// Evaluate reports whether bitmap contains every bit of mask. A zero mask is
// trivially satisfied; treating it as "pool not configured" is the caller's
// decision.
func Evaluate(b Bitmap, m Mask) bool {
	return uint64(b)&uint64(m) == uint64(m)
}

// Accredited reports bit 0.
func (b Bitmap) Accredited() bool {
	return b&(1<<accreditedBit) != 0
}

// Hex renders the bitmap as 0x-prefixed lowercase hex.
func (b Bitmap) Hex() string {
	return "0x" + strconv.FormatUint(uint64(b), 16)
}

// String renders the mask as 0x-prefixed lowercase hex, the persisted form.
func (m Mask) String() string {
	return "0x" + strconv.FormatUint(uint64(m), 16)
}

func (m Mask) IsZero() bool { return m == 0 }

// ParseMask accepts 0x-prefixed hex or decimal. Values wider than 64 bits are
// rejected.
func ParseMask(s string) (Mask, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "mask cannot be empty")
	}
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid mask %q", s))
	}
	if n.BitLen() > 64 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "mask exceeds 64 bits")
	}
	return Mask(n.Uint64()), nil
}
