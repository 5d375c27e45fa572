// Package ledger holds station resource balance arithmetic.
package ledger

import (
	"foundry.ai/internal/protocol"
)

// Consume deducts every requirement or none of them.
func Consume(balances map[string]int, reqs []protocol.ResourceAmount) error {
	need := merge(reqs)
	for _, r := range need {
		if r.Amount < 0 {
			return protocol.Errorf(protocol.ErrBadRequest, "negative amount for %s", r.Kind)
		}
		if have := balances[r.Kind]; have < r.Amount {
			return protocol.Errorf(protocol.ErrInsufficientResourceOnStation, "%s: have %d, need %d", r.Kind, have, r.Amount)
		}
	}
	for _, r := range need {
		if r.Amount == 0 {
			continue
		}
		balances[r.Kind] -= r.Amount
		if balances[r.Kind] == 0 {
			delete(balances, r.Kind)
		}
	}
	return nil
}

// Credit adds every requirement back. Crafting never credits; the station
// provider and admin deposits do.
func Credit(balances map[string]int, reqs []protocol.ResourceAmount) error {
	need := merge(reqs)
	for _, r := range need {
		if r.Kind == "" || r.Amount < 0 {
			return protocol.Errorf(protocol.ErrBadRequest, "invalid credit entry %q=%d", r.Kind, r.Amount)
		}
	}
	for _, r := range need {
		if r.Amount == 0 {
			continue
		}
		balances[r.Kind] += r.Amount
	}
	return nil
}

// merge folds repeated kinds so validation sees the total per kind.
func merge(reqs []protocol.ResourceAmount) []protocol.ResourceAmount {
	idx := make(map[string]int, len(reqs))
	out := make([]protocol.ResourceAmount, 0, len(reqs))
	for _, r := range reqs {
		if i, ok := idx[r.Kind]; ok {
			out[i].Amount += r.Amount
			continue
		}
		idx[r.Kind] = len(out)
		out = append(out, r)
	}
	return out
}
