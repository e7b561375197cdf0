package executor

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"time"

	"github.com/opentron/opentron-sub001/actuators"
	"github.com/opentron/opentron-sub001/types"
)

// EncodeParameter gives codec.EncodeTransactionRawData a deterministic byte
// encoding for every builtin Contract.Parameter type. It never uses
// encoding/gob for this: gob's map iteration order is not stable across
// encodes of the same value, which would make a transaction's hash (and so
// its signature) unverifiable (spec §3 "identity is SHA-256(raw_data)").
// Map-typed fields are therefore written in sorted-key order by hand.
// Exported so manager can hash a block's transactions against the same
// encoding the executor verifies signatures over.
func EncodeParameter(param interface{}) []byte {
	var buf bytes.Buffer
	switch p := param.(type) {
	case actuators.TransferParameter:
		buf.Write(p.ToAddress[:])
		writeI64(&buf, p.Amount)
	case actuators.FreezeBalanceParameter:
		writeI64(&buf, p.FrozenBalance)
		writeI64(&buf, p.FrozenDuration)
		buf.WriteByte(byte(p.Resource))
		buf.Write(p.ReceiverAddress[:])
	case actuators.UnfreezeBalanceParameter:
		buf.WriteByte(byte(p.Resource))
		buf.Write(p.ReceiverAddress[:])
	case actuators.VoteWitnessParameter:
		writeAddressI64Map(&buf, p.Votes)
	case actuators.ProposalCreateParameter:
		writeI64(&buf, p.ID)
		writeI64I64Map(&buf, p.Parameters)
		writeI64(&buf, p.ExpirationTime)
	case actuators.ProposalApproveParameter:
		writeI64(&buf, p.ID)
		writeBool(&buf, p.Approve)
	case actuators.ProposalDeleteParameter:
		writeI64(&buf, p.ID)
	case actuators.AccountCreateParameter:
		buf.Write(p.AccountAddress[:])
		buf.WriteByte(byte(p.Type))
	case actuators.WitnessCreateParameter:
		writeBytes(&buf, p.URL)
	case actuators.WitnessUpdateParameter:
		writeBytes(&buf, p.URL)
	case actuators.AccountPermissionUpdateParameter:
		writePermission(&buf, p.Owner)
		writeI64(&buf, int64(len(p.Actives)))
		for _, active := range p.Actives {
			writePermission(&buf, active)
		}
	case actuators.AssetIssueParameter:
		writeString(&buf, p.Name)
		writeString(&buf, p.Abbr)
		writeI64(&buf, p.TotalSupply)
		writeI64(&buf, p.TRXNum)
		writeI64(&buf, p.Num)
		writeI64(&buf, p.StartTime.UnixMilli())
		writeI64(&buf, p.EndTime.UnixMilli())
		writeI64(&buf, p.FreeAssetNetLimit)
		writeI64(&buf, p.PublicFreeAssetNetLimit)
	case actuators.ExchangeCreateParameter:
		writeI64(&buf, p.FirstTokenID)
		writeI64(&buf, p.FirstTokenBalance)
		writeI64(&buf, p.SecondTokenID)
		writeI64(&buf, p.SecondTokenBalance)
	case actuators.ExchangeInjectParameter:
		writeI64(&buf, p.ExchangeID)
		writeI64(&buf, p.TokenID)
		writeI64(&buf, p.Quant)
	case actuators.ExchangeWithdrawParameter:
		writeI64(&buf, p.ExchangeID)
		writeI64(&buf, p.TokenID)
		writeI64(&buf, p.Quant)
	case actuators.ExchangeTransactionParameter:
		writeI64(&buf, p.ExchangeID)
		writeI64(&buf, p.TokenID)
		writeI64(&buf, p.Quant)
	case actuators.SmartContractCreateParameter:
		writeBytes(&buf, p.Bytecode)
		writeBytes(&buf, p.ABI)
		writeI64(&buf, p.ConsumeUserResourcePercent)
		writeI64(&buf, p.OriginEnergyLimit)
	case actuators.SmartContractTriggerParameter:
		buf.Write(p.ContractAddress[:])
		writeBytes(&buf, p.Data)
		writeI64(&buf, p.CallValue)
	}
	return buf.Bytes()
}

// DecodeParameter is the inverse of EncodeParameter, dispatching on the
// transaction's own ContractType (carried alongside the parameter bytes in
// TransactionRaw, decoded first by codec.DecodeTransactionRawData) rather
// than a type tag embedded in the parameter bytes themselves.
func DecodeParameter(contractType types.ContractType, b []byte) (interface{}, error) {
	r := bytes.NewReader(b)
	switch contractType {
	case types.ContractTypeTransfer:
		var p actuators.TransferParameter
		if err := readAddress(r, &p.ToAddress); err != nil {
			return nil, err
		}
		var err error
		if p.Amount, err = readI64(r); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeFreezeBalance:
		var p actuators.FreezeBalanceParameter
		var err error
		if p.FrozenBalance, err = readI64(r); err != nil {
			return nil, err
		}
		if p.FrozenDuration, err = readI64(r); err != nil {
			return nil, err
		}
		res, err := readByte(r)
		if err != nil {
			return nil, err
		}
		p.Resource = types.Resource(res)
		if err := readAddress(r, &p.ReceiverAddress); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeUnfreezeBalance:
		var p actuators.UnfreezeBalanceParameter
		res, err := readByte(r)
		if err != nil {
			return nil, err
		}
		p.Resource = types.Resource(res)
		if err := readAddress(r, &p.ReceiverAddress); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeVoteWitness:
		votes, err := readAddressI64Map(r)
		if err != nil {
			return nil, err
		}
		return actuators.VoteWitnessParameter{Votes: votes}, nil
	case types.ContractTypeProposalCreate:
		var p actuators.ProposalCreateParameter
		var err error
		if p.ID, err = readI64(r); err != nil {
			return nil, err
		}
		if p.Parameters, err = readI64I64Map(r); err != nil {
			return nil, err
		}
		if p.ExpirationTime, err = readI64(r); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeProposalApprove:
		var p actuators.ProposalApproveParameter
		var err error
		if p.ID, err = readI64(r); err != nil {
			return nil, err
		}
		approve, err := readByte(r)
		if err != nil {
			return nil, err
		}
		p.Approve = approve != 0
		return p, nil
	case types.ContractTypeProposalDelete:
		var p actuators.ProposalDeleteParameter
		var err error
		if p.ID, err = readI64(r); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeAccountCreate:
		var p actuators.AccountCreateParameter
		if err := readAddress(r, &p.AccountAddress); err != nil {
			return nil, err
		}
		typ, err := readByte(r)
		if err != nil {
			return nil, err
		}
		p.Type = types.AccountType(typ)
		return p, nil
	case types.ContractTypeWitnessCreate:
		url, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return actuators.WitnessCreateParameter{URL: url}, nil
	case types.ContractTypeWitnessUpdate:
		url, err := readBytes(r)
		if err != nil {
			return nil, err
		}
		return actuators.WitnessUpdateParameter{URL: url}, nil
	case types.ContractTypeAccountPermissionUpdate:
		var p actuators.AccountPermissionUpdateParameter
		var err error
		if p.Owner, err = readPermission(r); err != nil {
			return nil, err
		}
		n, err := readI64(r)
		if err != nil {
			return nil, err
		}
		p.Actives = make([]types.Permission, n)
		for i := range p.Actives {
			if p.Actives[i], err = readPermission(r); err != nil {
				return nil, err
			}
		}
		return p, nil
	case types.ContractTypeAssetIssue:
		var p actuators.AssetIssueParameter
		var err error
		if p.Name, err = readString(r); err != nil {
			return nil, err
		}
		if p.Abbr, err = readString(r); err != nil {
			return nil, err
		}
		if p.TotalSupply, err = readI64(r); err != nil {
			return nil, err
		}
		if p.TRXNum, err = readI64(r); err != nil {
			return nil, err
		}
		if p.Num, err = readI64(r); err != nil {
			return nil, err
		}
		start, err := readI64(r)
		if err != nil {
			return nil, err
		}
		p.StartTime = timeFromMillis(start)
		end, err := readI64(r)
		if err != nil {
			return nil, err
		}
		p.EndTime = timeFromMillis(end)
		if p.FreeAssetNetLimit, err = readI64(r); err != nil {
			return nil, err
		}
		if p.PublicFreeAssetNetLimit, err = readI64(r); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeExchangeCreate:
		var p actuators.ExchangeCreateParameter
		var err error
		if p.FirstTokenID, err = readI64(r); err != nil {
			return nil, err
		}
		if p.FirstTokenBalance, err = readI64(r); err != nil {
			return nil, err
		}
		if p.SecondTokenID, err = readI64(r); err != nil {
			return nil, err
		}
		if p.SecondTokenBalance, err = readI64(r); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeExchangeInject:
		id, tokenID, quant, err := readExchangeTriple(r)
		if err != nil {
			return nil, err
		}
		return actuators.ExchangeInjectParameter{ExchangeID: id, TokenID: tokenID, Quant: quant}, nil
	case types.ContractTypeExchangeWithdraw:
		id, tokenID, quant, err := readExchangeTriple(r)
		if err != nil {
			return nil, err
		}
		return actuators.ExchangeWithdrawParameter{ExchangeID: id, TokenID: tokenID, Quant: quant}, nil
	case types.ContractTypeExchangeTransaction:
		id, tokenID, quant, err := readExchangeTriple(r)
		if err != nil {
			return nil, err
		}
		return actuators.ExchangeTransactionParameter{ExchangeID: id, TokenID: tokenID, Quant: quant}, nil
	case types.ContractTypeSmartContractCreate:
		var p actuators.SmartContractCreateParameter
		var err error
		if p.Bytecode, err = readBytes(r); err != nil {
			return nil, err
		}
		if p.ABI, err = readBytes(r); err != nil {
			return nil, err
		}
		if p.ConsumeUserResourcePercent, err = readI64(r); err != nil {
			return nil, err
		}
		if p.OriginEnergyLimit, err = readI64(r); err != nil {
			return nil, err
		}
		return p, nil
	case types.ContractTypeSmartContractTrigger:
		var p actuators.SmartContractTriggerParameter
		if err := readAddress(r, &p.ContractAddress); err != nil {
			return nil, err
		}
		var err error
		if p.Data, err = readBytes(r); err != nil {
			return nil, err
		}
		if p.CallValue, err = readI64(r); err != nil {
			return nil, err
		}
		return p, nil
	default:
		// TransferAsset, WithdrawBalance: no Parameter fields of their own
		// (WithdrawBalance's amount is computed, not carried on the wire).
		return nil, nil
	}
}

func readExchangeTriple(r *bytes.Reader) (id, tokenID, quant int64, err error) {
	if id, err = readI64(r); err != nil {
		return
	}
	if tokenID, err = readI64(r); err != nil {
		return
	}
	quant, err = readI64(r)
	return
}

func timeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func readByte(r *bytes.Reader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, types.Wrap(types.KindMalformedInput, err, "decode parameter byte")
	}
	return b, nil
}

func readAddress(r *bytes.Reader, addr *types.Address) error {
	if _, err := io.ReadFull(r, addr[:]); err != nil {
		return types.Wrap(types.KindMalformedInput, err, "decode parameter address")
	}
	return nil
}

func readI64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, types.Wrap(types.KindMalformedInput, err, "decode parameter int64")
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readI64(r)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, types.Wrap(types.KindMalformedInput, err, "decode parameter bytes")
	}
	return out, nil
}

func readString(r *bytes.Reader) (string, error) {
	b, err := readBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readPermission(r *bytes.Reader) (types.Permission, error) {
	var p types.Permission
	var err error
	if p.Threshold, err = readI64(r); err != nil {
		return p, err
	}
	if _, err := io.ReadFull(r, p.Operations[:]); err != nil {
		return p, types.Wrap(types.KindMalformedInput, err, "decode permission operations")
	}
	n, err := readI64(r)
	if err != nil {
		return p, err
	}
	p.Keys = make(map[types.Address]int64, n)
	for i := int64(0); i < n; i++ {
		var addr types.Address
		if err := readAddress(r, &addr); err != nil {
			return p, err
		}
		weight, err := readI64(r)
		if err != nil {
			return p, err
		}
		p.Keys[addr] = weight
	}
	return p, nil
}

func readAddressI64Map(r *bytes.Reader) (map[types.Address]int64, error) {
	n, err := readI64(r)
	if err != nil {
		return nil, err
	}
	out := make(map[types.Address]int64, n)
	for i := int64(0); i < n; i++ {
		var addr types.Address
		if err := readAddress(r, &addr); err != nil {
			return nil, err
		}
		v, err := readI64(r)
		if err != nil {
			return nil, err
		}
		out[addr] = v
	}
	return out, nil
}

func readI64I64Map(r *bytes.Reader) (map[int64]int64, error) {
	n, err := readI64(r)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, n)
	for i := int64(0); i < n; i++ {
		k, err := readI64(r)
		if err != nil {
			return nil, err
		}
		v, err := readI64(r)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeBytes(buf *bytes.Buffer, b []byte) {
	writeI64(buf, int64(len(b)))
	buf.Write(b)
}

func writeString(buf *bytes.Buffer, s string) {
	writeBytes(buf, []byte(s))
}

func writePermission(buf *bytes.Buffer, p types.Permission) {
	writeI64(buf, p.Threshold)
	buf.Write(p.Operations[:])
	keys := make([]types.Address, 0, len(p.Keys))
	for k := range p.Keys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	writeI64(buf, int64(len(keys)))
	for _, k := range keys {
		buf.Write(k[:])
		writeI64(buf, p.Keys[k])
	}
}

func writeAddressI64Map(buf *bytes.Buffer, m map[types.Address]int64) {
	keys := make([]types.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	writeI64(buf, int64(len(keys)))
	for _, k := range keys {
		buf.Write(k[:])
		writeI64(buf, m[k])
	}
}

func writeI64I64Map(buf *bytes.Buffer, m map[int64]int64) {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	writeI64(buf, int64(len(keys)))
	for _, k := range keys {
		writeI64(buf, k)
		writeI64(buf, m[k])
	}
}
