package kite

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestChecksumKnownVector(t *testing.T) {
	// SHA-256("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Checksum("a", "b", "c"); got != want {
		t.Errorf("Checksum(a, b, c) = %s, want %s", got, want)
	}
}

func TestChecksumOrderMatters(t *testing.T) {
	if Checksum("key", "token", "secret") == Checksum("secret", "token", "key") {
		t.Error("checksum should depend on argument order")
	}
}

// Property: the checksum is a 64-char lowercase hex digest and the same
// triple always signs to the same value.
func TestProperty_ChecksumDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("same input gives same digest", prop.ForAll(
		func(apiKey, requestToken, apiSecret string) bool {
			a := Checksum(apiKey, requestToken, apiSecret)
			b := Checksum(apiKey, requestToken, apiSecret)
			if a != b || len(a) != 64 {
				return false
			}
			for _, r := range a {
				if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// Property: changing any one of the three inputs changes the digest.
func TestProperty_ChecksumDistinct(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	distinctPair := gopter.CombineGens(gen.Identifier(), gen.Identifier()).
		SuchThat(func(v []interface{}) bool { return v[0].(string) != v[1].(string) })

	properties.Property("api key changes digest", prop.ForAll(
		func(pair []interface{}, token, secret string) bool {
			return Checksum(pair[0].(string), token, secret) != Checksum(pair[1].(string), token, secret)
		},
		distinctPair, gen.Identifier(), gen.Identifier(),
	))

	properties.Property("request token changes digest", prop.ForAll(
		func(pair []interface{}, key, secret string) bool {
			return Checksum(key, pair[0].(string), secret) != Checksum(key, pair[1].(string), secret)
		},
		distinctPair, gen.Identifier(), gen.Identifier(),
	))

	properties.Property("secret changes digest", prop.ForAll(
		func(pair []interface{}, key, token string) bool {
			return Checksum(key, token, pair[0].(string)) != Checksum(key, token, pair[1].(string))
		},
		distinctPair, gen.Identifier(), gen.Identifier(),
	))

	properties.TestingRun(t)
}
