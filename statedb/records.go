package statedb

import (
	"github.com/opentron/opentron-sub001/types"
)

// GetAccount returns the account at addr, or ok=false if it has never been
// created (spec §3 "Ownership & lifecycle").
func (s *StateDB) GetAccount(addr types.Address) (*types.Account, bool, error) {
	raw, ok, err := s.Get(ColumnAccount, addr[:])
	if err != nil || !ok {
		return nil, ok, err
	}
	var acc types.Account
	if err := decodeRecord(raw, &acc); err != nil {
		return nil, false, err
	}
	return &acc, true, nil
}

// PutAccount stores acc, creating or overwriting the record at its address.
func (s *StateDB) PutAccount(acc *types.Account) error {
	raw, err := encodeRecord(acc)
	if err != nil {
		return err
	}
	s.Put(ColumnAccount, acc.Address[:], raw)
	return nil
}

// GetWitness returns the witness at addr.
func (s *StateDB) GetWitness(addr types.Address) (*types.Witness, bool, error) {
	raw, ok, err := s.Get(ColumnWitness, addr[:])
	if err != nil || !ok {
		return nil, ok, err
	}
	var w types.Witness
	if err := decodeRecord(raw, &w); err != nil {
		return nil, false, err
	}
	return &w, true, nil
}

// PutWitness stores w (witnesses are never deleted, spec §3).
func (s *StateDB) PutWitness(w *types.Witness) error {
	raw, err := encodeRecord(w)
	if err != nil {
		return err
	}
	s.Put(ColumnWitness, w.Address[:], raw)
	return nil
}

// AllWitnesses returns every witness record, used by the maintenance
// re-tally (spec §4.7 step 3: "iterating all Witness records").
func (s *StateDB) AllWitnesses() ([]*types.Witness, error) {
	entries, err := s.GetByPrefix(ColumnWitness, nil)
	if err != nil {
		return nil, err
	}
	out := make([]*types.Witness, 0, len(entries))
	for _, e := range entries {
		var w types.Witness
		if err := decodeRecord(e.Value, &w); err != nil {
			return nil, err
		}
		out = append(out, &w)
	}
	return out, nil
}

func proposalKey(id int64) []byte { return i64Value(id) }

// GetProposal returns the proposal with the given id.
func (s *StateDB) GetProposal(id int64) (*types.Proposal, bool, error) {
	raw, ok, err := s.Get(ColumnProposal, proposalKey(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	var p types.Proposal
	if err := decodeRecord(raw, &p); err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

// PutProposal stores p.
func (s *StateDB) PutProposal(p *types.Proposal) error {
	raw, err := encodeRecord(p)
	if err != nil {
		return err
	}
	s.Put(ColumnProposal, proposalKey(p.ID), raw)
	return nil
}

// AllPendingProposals returns every proposal still in ProposalPending state.
// No code in this module calls it: maintenance.Run neither approves nor
// expires proposals, so a proposal stays Pending until it is deleted.
func (s *StateDB) AllPendingProposals() ([]*types.Proposal, error) {
	entries, err := s.GetByPrefix(ColumnProposal, nil)
	if err != nil {
		return nil, err
	}
	var out []*types.Proposal
	for _, e := range entries {
		var p types.Proposal
		if err := decodeRecord(e.Value, &p); err != nil {
			return nil, err
		}
		if p.State == types.ProposalPending {
			out = append(out, &p)
		}
	}
	return out, nil
}

// GetVotes returns the Votes record for owner.
func (s *StateDB) GetVotes(owner types.Address) (*types.Votes, bool, error) {
	raw, ok, err := s.Get(ColumnVotes, owner[:])
	if err != nil || !ok {
		return nil, ok, err
	}
	var v types.Votes
	if err := decodeRecord(raw, &v); err != nil {
		return nil, false, err
	}
	return &v, true, nil
}

// PutVotes stores v.
func (s *StateDB) PutVotes(v *types.Votes) error {
	raw, err := encodeRecord(v)
	if err != nil {
		return err
	}
	s.Put(ColumnVotes, v.Owner[:], raw)
	return nil
}

// DeleteVotes removes owner's Votes record (spec §4.6 Unfreeze: "the Votes
// record is deleted").
func (s *StateDB) DeleteVotes(owner types.Address) {
	s.Delete(ColumnVotes, owner[:])
}

// GetContract returns the deployed smart contract at addr.
func (s *StateDB) GetContract(addr types.Address) (*types.SmartContract, bool, error) {
	raw, ok, err := s.Get(ColumnContract, addr[:])
	if err != nil || !ok {
		return nil, ok, err
	}
	var sc types.SmartContract
	if err := decodeRecord(raw, &sc); err != nil {
		return nil, false, err
	}
	return &sc, true, nil
}

// PutContract stores sc.
func (s *StateDB) PutContract(sc *types.SmartContract) error {
	raw, err := encodeRecord(sc)
	if err != nil {
		return err
	}
	s.Put(ColumnContract, sc.Address[:], raw)
	return nil
}

func assetKey(id int64) []byte { return i64Value(id) }

// GetAsset returns the asset with the given id.
func (s *StateDB) GetAsset(id int64) (*types.Asset, bool, error) {
	raw, ok, err := s.Get(ColumnAsset, assetKey(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	var a types.Asset
	if err := decodeRecord(raw, &a); err != nil {
		return nil, false, err
	}
	return &a, true, nil
}

// PutAsset stores a.
func (s *StateDB) PutAsset(a *types.Asset) error {
	raw, err := encodeRecord(a)
	if err != nil {
		return err
	}
	s.Put(ColumnAsset, assetKey(a.ID), raw)
	return nil
}

func exchangeKey(id int64) []byte { return i64Value(id) }

// GetExchange returns the exchange pair with the given id.
func (s *StateDB) GetExchange(id int64) (*types.Exchange, bool, error) {
	raw, ok, err := s.Get(ColumnExchange, exchangeKey(id))
	if err != nil || !ok {
		return nil, ok, err
	}
	var e types.Exchange
	if err := decodeRecord(raw, &e); err != nil {
		return nil, false, err
	}
	return &e, true, nil
}

// PutExchange stores e.
func (s *StateDB) PutExchange(e *types.Exchange) error {
	raw, err := encodeRecord(e)
	if err != nil {
		return err
	}
	s.Put(ColumnExchange, exchangeKey(e.ID), raw)
	return nil
}

func delegationKey(from, to types.Address) []byte {
	key := make([]byte, 0, 2*types.AddressLength)
	key = append(key, from[:]...)
	key = append(key, to[:]...)
	return key
}

// GetResourceDelegation returns the delegation from `from` to `to`.
func (s *StateDB) GetResourceDelegation(from, to types.Address) (*types.ResourceDelegation, bool, error) {
	raw, ok, err := s.Get(ColumnResourceDelegation, delegationKey(from, to))
	if err != nil || !ok {
		return nil, ok, err
	}
	var d types.ResourceDelegation
	if err := decodeRecord(raw, &d); err != nil {
		return nil, false, err
	}
	return &d, true, nil
}

// PutResourceDelegation stores d and maintains the reverse
// ResourceDelegationIndex(to) -> [from] (spec §3, §8 invariant).
func (s *StateDB) PutResourceDelegation(d *types.ResourceDelegation) error {
	raw, err := encodeRecord(d)
	if err != nil {
		return err
	}
	s.Put(ColumnResourceDelegation, delegationKey(d.From, d.To), raw)

	index, err := s.getDelegationIndex(d.To)
	if err != nil {
		return err
	}
	present := false
	for _, f := range index {
		if f == d.From {
			present = true
			break
		}
	}
	if d.IsEmpty() {
		if present {
			return s.removeFromDelegationIndex(d.To, d.From)
		}
		return nil
	}
	if !present {
		index = append(index, d.From)
		return s.putDelegationIndex(d.To, index)
	}
	return nil
}

func (s *StateDB) getDelegationIndex(to types.Address) ([]types.Address, error) {
	raw, ok, err := s.Get(ColumnResourceDelegationIndex, to[:])
	if err != nil || !ok {
		return nil, err
	}
	var addrs []types.Address
	if err := decodeRecord(raw, &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

func (s *StateDB) putDelegationIndex(to types.Address, from []types.Address) error {
	raw, err := encodeRecord(from)
	if err != nil {
		return err
	}
	s.Put(ColumnResourceDelegationIndex, to[:], raw)
	return nil
}

func (s *StateDB) removeFromDelegationIndex(to, from types.Address) error {
	index, err := s.getDelegationIndex(to)
	if err != nil {
		return err
	}
	filtered := index[:0]
	for _, f := range index {
		if f != from {
			filtered = append(filtered, f)
		}
	}
	if len(filtered) == 0 {
		s.Delete(ColumnResourceDelegationIndex, to[:])
		return nil
	}
	return s.putDelegationIndex(to, filtered)
}

// ResourceDelegationIndex returns the set of accounts that have delegated
// resources to `to` (spec §3 "the reverse index ResourceDelegationIndex(to)").
func (s *StateDB) ResourceDelegationIndex(to types.Address) ([]types.Address, error) {
	return s.getDelegationIndex(to)
}

// GetTransactionReceipt returns the receipt recorded for a transaction hash.
func (s *StateDB) GetTransactionReceipt(hash types.Hash) (*types.TransactionReceipt, bool, error) {
	raw, ok, err := s.Get(ColumnTransactionReceipt, hash[:])
	if err != nil || !ok {
		return nil, ok, err
	}
	var r types.TransactionReceipt
	if err := decodeRecord(raw, &r); err != nil {
		return nil, false, err
	}
	return &r, true, nil
}

// PutTransactionReceipt stores receipt keyed by the transaction's hash
// (spec §4.4 step 8).
func (s *StateDB) PutTransactionReceipt(hash types.Hash, receipt *types.TransactionReceipt) error {
	raw, err := encodeRecord(receipt)
	if err != nil {
		return err
	}
	s.Put(ColumnTransactionReceipt, hash[:], raw)
	return nil
}
