package paybot

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: BaseUnitsToDecimal(DecimalToBaseUnits(d)) is d scaled back from 10^6
// for any decimal with at most 6 fractional digits.
func TestDecimalToBaseUnitsRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("conversion is exact and invertible", prop.ForAll(
		func(whole uint32, frac uint32, digits int) bool {
			frac %= 1000000
			fracText := fmt.Sprintf("%06d", frac)[:digits]
			decimal := fmt.Sprintf("%d.%s", whole, fracText)

			units, err := DecimalToBaseUnits(decimal)
			if err != nil {
				return false
			}

			want := new(big.Int).Mul(big.NewInt(int64(whole)), big.NewInt(1000000))
			scaled, _ := new(big.Int).SetString(fracText+"000000"[:6-digits], 10)
			want.Add(want, scaled)
			if units != want.String() {
				return false
			}

			back, err := BaseUnitsToDecimal(units)
			if err != nil {
				return false
			}
			again, err := DecimalToBaseUnits(back)
			return err == nil && again == units
		},
		gen.UInt32(),
		gen.UInt32(),
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}
