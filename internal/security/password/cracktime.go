package password

import (
	"math/big"
)

// guessesPerSecond is the assumed offline attack rate.
const guessesPerSecond = 1_000_000_000

type timeBand struct {
	below int64 // upper bound in seconds, exclusive
	unit  int64 // seconds per unit
	name  string
}

var timeBands = []timeBand{
	{below: 60, unit: 1, name: "seconds"},
	{below: 3600, unit: 60, name: "minutes"},
	{below: 86400, unit: 3600, name: "hours"},
	{below: 31_536_000, unit: 86400, name: "days"},
	{below: 3_153_600_000, unit: 31_536_000, name: "years"},
}

var centuries = timeBand{unit: 3_153_600_000, name: "centuries"}

// CrackTime estimates how long exhausting half the keyspace of pwd takes.
func CrackTime(pwd string) string {
	return crackTimeLabel(keyspace(length(pwd), CharsetSize(pwd)))
}

// keyspace is charset^length, exact.
func keyspace(n, charset int) *big.Int {
	k := big.NewInt(int64(charset))
	return k.Exp(k, big.NewInt(int64(n)), nil)
}

// crackTimeLabel picks the first band the expected time falls under.
// Expected seconds are keyspace / (2 * rate); comparisons stay in integers by
// scaling the band bounds instead.
func crackTimeLabel(ks *big.Int) string {
	perSecond := big.NewInt(2 * guessesPerSecond)
	if ks.Cmp(perSecond) < 0 {
		return "Less than 1 second"
	}
	for _, b := range timeBands {
		limit := new(big.Int).Mul(big.NewInt(b.below), perSecond)
		if ks.Cmp(limit) < 0 {
			return roundedUnits(ks, b) + " " + b.name
		}
	}
	return roundedUnits(ks, centuries) + " " + centuries.name
}

// roundedUnits returns round-half-up(ks / (2*rate*unit)) in decimal.
func roundedUnits(ks *big.Int, b timeBand) string {
	div := new(big.Int).Mul(big.NewInt(b.unit), big.NewInt(2*guessesPerSecond))
	half := new(big.Int).Rsh(div, 1)
	n := new(big.Int).Add(ks, half)
	return n.Quo(n, div).String()
}
