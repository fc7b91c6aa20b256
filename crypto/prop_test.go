package crypto

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/shieldkit/shieldkit/core/types"
)

func genHash() gopter.Gen {
	return gen.SliceOfN(32, gen.UInt8()).Map(func(b []byte) types.Hash {
		return types.BytesToHash(b)
	})
}

func genNonce() gopter.Gen {
	return gen.SliceOfN(32, gen.UInt8()).Map(func(b []byte) types.Nonce {
		return types.BytesToNonce(b)
	})
}

func genAddress() gopter.Gen {
	return gen.SliceOfN(20, gen.UInt8()).Map(func(b []byte) types.Address {
		return types.BytesToAddress(b)
	})
}

func TestDeriveID_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("deriveId is pure and stable", prop.ForAll(
		func(addr types.Address, nonce types.Nonce) bool {
			account := types.PlainAccount(addr)
			a, err1 := DeriveID(account, nonce)
			b, err2 := DeriveID(account, nonce)
			return err1 == nil && err2 == nil && a == b
		},
		genAddress(), genNonce(),
	))

	properties.Property("distinct nonces derive distinct ids", prop.ForAll(
		func(addr types.Address, n1, n2 types.Nonce) bool {
			if n1 == n2 {
				return true
			}
			account := types.PlainAccount(addr)
			a, _ := DeriveID(account, n1)
			b, _ := DeriveID(account, n2)
			return a != b
		},
		genAddress(), genNonce(), genNonce(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRoleCommitment_Unlinkability(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("distinct tuples never collide", prop.ForAll(
		func(r1, r2, id1, id2 types.Hash, n1, n2 types.Nonce, i1, i2 uint64) bool {
			if r1 == r2 && id1 == id2 && n1 == n2 && i1 == i2 {
				return true
			}
			return RoleCommitment(r1, id1, n1, i1) != RoleCommitment(r2, id2, n2, i2)
		},
		genHash(), genHash(), genHash(), genHash(), genNonce(), genNonce(),
		gen.UInt64(), gen.UInt64(),
	))

	properties.Property("commitment and nullifier never collide", prop.ForAll(
		func(r, id types.Hash, n types.Nonce, i uint64) bool {
			c := RoleCommitment(r, id, n, i)
			return NullifierFor(c) != c
		},
		genHash(), genHash(), genNonce(), gen.UInt64(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
