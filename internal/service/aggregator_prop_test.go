package service

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/wallet-insight/internal/models"
	"github.com/wallet-insight/internal/types"
)

// genWallets produces random wallet sets with varied counts and totals.
func genWallets() gopter.Gen {
	return gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 10),
		gen.Float64Range(0, 1000),
	).Map(func(vals []interface{}) *models.Wallet {
		return &models.Wallet{
			Blockchain:       types.ChainEthereum,
			TransactionCount: vals[0].(int),
			TotalReceived:    vals[1].(float64),
		}
	}))
}

func TestSortWallets_Properties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeat buyers always precede new wallets", prop.ForAll(
		func(wallets []*models.Wallet) bool {
			sortWallets(wallets)
			seenNew := false
			for _, w := range wallets {
				if !w.IsRepeatBuyer() {
					seenNew = true
				} else if seenNew {
					return false
				}
			}
			return true
		},
		genWallets(),
	))

	properties.Property("totals descend within each cohort", prop.ForAll(
		func(wallets []*models.Wallet) bool {
			sortWallets(wallets)
			for i := 1; i < len(wallets); i++ {
				if wallets[i-1].IsRepeatBuyer() == wallets[i].IsRepeatBuyer() &&
					wallets[i-1].TotalReceived < wallets[i].TotalReceived {
					return false
				}
			}
			return true
		},
		genWallets(),
	))

	properties.Property("sorting preserves the set", prop.ForAll(
		func(wallets []*models.Wallet) bool {
			before := make(map[*models.Wallet]bool, len(wallets))
			for _, w := range wallets {
				before[w] = true
			}
			sortWallets(wallets)
			if len(wallets) != len(before) {
				return false
			}
			for _, w := range wallets {
				if !before[w] {
					return false
				}
			}
			return true
		},
		genWallets(),
	))

	properties.TestingRun(t)
}
