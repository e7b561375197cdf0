package chaindb

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/executor"
	"github.com/opentron/opentron-sub001/types"
)

// encodeBlock/decodeBlock serialize a finalized block in full, header,
// signature, and every transaction including its receipt — unlike
// channel/codec.go's wire frames, which carry transactions before execution
// and so never have a Receipt to encode.
func encodeBlock(block *types.Block) []byte {
	var buf bytes.Buffer
	headerRaw := codec.EncodeBlockHeaderRaw(&block.Header.RawData)
	writeU32(&buf, uint32(len(headerRaw)))
	buf.Write(headerRaw)
	buf.Write(block.Header.Signature[:])
	writeU32(&buf, uint32(len(block.Transactions)))
	for _, tx := range block.Transactions {
		encodeTransaction(&buf, tx)
	}
	return buf.Bytes()
}

func decodeBlock(b []byte) (*types.Block, error) {
	r := bytes.NewReader(b)
	headerLen, err := readU32(r)
	if err != nil {
		return nil, err
	}
	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, wrapErr(err)
	}
	headerRaw, err := codec.DecodeBlockHeaderRaw(headerBytes)
	if err != nil {
		return nil, err
	}
	var sig [65]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, wrapErr(err)
	}
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	txs := make([]*types.Transaction, 0, n)
	for i := uint32(0); i < n; i++ {
		tx, err := decodeTransaction(r)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return &types.Block{
		Header:       types.BlockHeader{RawData: headerRaw, Signature: sig},
		Transactions: txs,
	}, nil
}

func encodeTransaction(buf *bytes.Buffer, tx *types.Transaction) {
	raw := codec.EncodeTransactionRawData(&tx.RawData, executor.EncodeParameter)
	writeU32(buf, uint32(len(raw)))
	buf.Write(raw)
	writeU32(buf, uint32(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		buf.Write(sig[:])
	}
	if tx.Receipt == nil {
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(1)
	buf.Write(encodeReceipt(tx.Receipt))
}

func decodeTransaction(r *bytes.Reader) (*types.Transaction, error) {
	rawLen, err := readU32(r)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, rawLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, wrapErr(err)
	}
	rawData, err := codec.DecodeTransactionRawData(raw, executor.DecodeParameter)
	if err != nil {
		return nil, err
	}
	sigCount, err := readU32(r)
	if err != nil {
		return nil, err
	}
	sigs := make([][65]byte, sigCount)
	for i := range sigs {
		if _, err := io.ReadFull(r, sigs[i][:]); err != nil {
			return nil, wrapErr(err)
		}
	}
	hasReceipt, err := r.ReadByte()
	if err != nil {
		return nil, wrapErr(err)
	}
	tx := &types.Transaction{RawData: rawData, Signatures: sigs}
	if hasReceipt == 1 {
		receiptLen, err := readU32(r)
		if err != nil {
			return nil, err
		}
		// decodeReceipt expects the length prefix encodeReceipt wrote.
		receiptBytes := make([]byte, 4+receiptLen)
		binary.BigEndian.PutUint32(receiptBytes[:4], receiptLen)
		if _, err := io.ReadFull(r, receiptBytes[4:]); err != nil {
			return nil, wrapErr(err)
		}
		receipt, err := decodeReceipt(receiptBytes)
		if err != nil {
			return nil, err
		}
		tx.Receipt = receipt
	}
	return tx, nil
}

// encodeReceipt/decodeReceipt serialize TransactionReceipt (spec §6 column
// family TransactionReceipt).
func encodeReceipt(r *types.TransactionReceipt) []byte {
	var buf bytes.Buffer
	writeI64(&buf, r.BandwidthUsage)
	writeI64(&buf, r.BandwidthFee)
	writeI64(&buf, r.EnergyUsage)
	writeI64(&buf, r.EnergyFee)
	buf.WriteByte(byte(r.ContractStatus))
	writeU32(&buf, uint32(len(r.Logs)))
	buf.Write(r.Logs)
	writeU32(&buf, uint32(len(r.InternalTransactions)))
	for _, it := range r.InternalTransactions {
		writeU32(&buf, uint32(len(it)))
		buf.Write(it)
	}
	writeI64(&buf, r.WithdrawAmount)
	if r.CreatedContract != nil {
		buf.WriteByte(1)
		buf.Write(r.CreatedContract[:])
	} else {
		buf.WriteByte(0)
	}
	writeI64(&buf, r.CreatedAssetID)
	body := buf.Bytes()
	var out bytes.Buffer
	writeU32(&out, uint32(len(body)))
	out.Write(body)
	return out.Bytes()
}

func decodeReceipt(b []byte) (*types.TransactionReceipt, error) {
	r := bytes.NewReader(b)
	length, err := readU32(r)
	if err != nil {
		return nil, err
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, wrapErr(err)
	}
	br := bytes.NewReader(body)
	var receipt types.TransactionReceipt
	if receipt.BandwidthUsage, err = readI64(br); err != nil {
		return nil, err
	}
	if receipt.BandwidthFee, err = readI64(br); err != nil {
		return nil, err
	}
	if receipt.EnergyUsage, err = readI64(br); err != nil {
		return nil, err
	}
	if receipt.EnergyFee, err = readI64(br); err != nil {
		return nil, err
	}
	status, err := br.ReadByte()
	if err != nil {
		return nil, wrapErr(err)
	}
	receipt.ContractStatus = types.ContractStatus(status)
	logLen, err := readU32(br)
	if err != nil {
		return nil, err
	}
	receipt.Logs = make([]byte, logLen)
	if _, err := io.ReadFull(br, receipt.Logs); err != nil {
		return nil, wrapErr(err)
	}
	n, err := readU32(br)
	if err != nil {
		return nil, err
	}
	receipt.InternalTransactions = make([][]byte, n)
	for i := range receipt.InternalTransactions {
		itLen, err := readU32(br)
		if err != nil {
			return nil, err
		}
		it := make([]byte, itLen)
		if _, err := io.ReadFull(br, it); err != nil {
			return nil, wrapErr(err)
		}
		receipt.InternalTransactions[i] = it
	}
	if receipt.WithdrawAmount, err = readI64(br); err != nil {
		return nil, err
	}
	hasContract, err := br.ReadByte()
	if err != nil {
		return nil, wrapErr(err)
	}
	if hasContract == 1 {
		var addr types.Address
		if _, err := io.ReadFull(br, addr[:]); err != nil {
			return nil, wrapErr(err)
		}
		receipt.CreatedContract = &addr
	}
	if receipt.CreatedAssetID, err = readI64(br); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapErr(err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func readI64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, wrapErr(err)
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func wrapErr(err error) error {
	return types.Wrap(types.KindMalformedInput, err, "decode chaindb record")
}
