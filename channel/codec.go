package channel

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/opentron/opentron-sub001/codec"
	"github.com/opentron/opentron-sub001/executor"
	"github.com/opentron/opentron-sub001/types"
)

// MaxFrameSize bounds one decoded frame, mirroring wire.MaxMessagePayload's
// role of capping a single message regardless of its own internal limits.
const MaxFrameSize = 32 * 1024 * 1024

// WriteFrame writes a length-prefixed frame: a 4-byte big-endian length
// (command byte + body), the command byte, then the encoded body.
func WriteFrame(w io.Writer, f Frame) error {
	body, err := encodeBody(f)
	if err != nil {
		return err
	}
	var header [5]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(len(body)+1))
	header[4] = byte(f.Command())
	if _, err := w.Write(header[:]); err != nil {
		return types.Wrap(types.KindTransient, err, "write frame header")
	}
	if _, err := w.Write(body); err != nil {
		return types.Wrap(types.KindTransient, err, "write frame body")
	}
	return nil
}

// ReadFrame reads one length-prefixed frame from r and decodes its body
// according to the command byte.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:4]); err != nil {
		return nil, types.Wrap(types.KindTransient, err, "read frame length")
	}
	length := binary.BigEndian.Uint32(header[0:4])
	if length == 0 || length > MaxFrameSize {
		return nil, types.Newf(types.KindMalformedInput, "frame length %d out of range", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, types.Wrap(types.KindTransient, err, "read frame body")
	}
	return decodeBody(Command(payload[0]), payload[1:])
}

func encodeBody(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	switch v := f.(type) {
	case PingFrame, PongFrame:
		buf.WriteByte(0xC0)
	case *HandshakeHelloFrame:
		buf.Write(v.From[:])
		writeI32(&buf, v.Version)
		writeI64(&buf, v.Timestamp)
		buf.Write(v.GenesisBlockID[:])
		buf.Write(v.SolidBlockID[:])
		buf.Write(v.HeadBlockID[:])
	case *HandshakeDisconnectFrame:
		buf.WriteByte(byte(v.Reason))
	case *InventoryFrame:
		buf.WriteByte(byte(v.Type))
		writeHashes(&buf, v.IDs)
	case *FetchInventoryDataFrame:
		buf.WriteByte(byte(v.Type))
		writeHashes(&buf, v.IDs)
	case *SyncBlockchainFrame:
		writeHashes(&buf, v.IDs)
	case *BlockchainInventoryFrame:
		writeHashes(&buf, v.IDs)
		writeI64(&buf, v.RemainNum)
	case *TransactionsFrame:
		writeI32(&buf, int32(len(v.Transactions)))
		for _, tx := range v.Transactions {
			encodeTransaction(&buf, tx)
		}
	case *BlockFrame:
		encodeBlock(&buf, v.Block)
	default:
		return nil, types.Newf(types.KindMalformedInput, "unencodable frame type %T", f)
	}
	return buf.Bytes(), nil
}

func decodeBody(cmd Command, body []byte) (Frame, error) {
	r := bytes.NewReader(body)
	switch cmd {
	case CmdPing:
		return PingFrame{}, nil
	case CmdPong:
		return PongFrame{}, nil
	case CmdHandshakeHello:
		var f HandshakeHelloFrame
		if _, err := io.ReadFull(r, f.From[:]); err != nil {
			return nil, wrapDecode(err)
		}
		var err error
		if f.Version, err = readI32(r); err != nil {
			return nil, wrapDecode(err)
		}
		if f.Timestamp, err = readI64(r); err != nil {
			return nil, wrapDecode(err)
		}
		for _, h := range []*types.Hash{&f.GenesisBlockID, &f.SolidBlockID, &f.HeadBlockID} {
			if _, err := io.ReadFull(r, h[:]); err != nil {
				return nil, wrapDecode(err)
			}
		}
		return &f, nil
	case CmdHandshakeDisconnect:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapDecode(err)
		}
		return &HandshakeDisconnectFrame{Reason: DisconnectReason(b[0])}, nil
	case CmdInventory:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapDecode(err)
		}
		ids, err := readHashes(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		return &InventoryFrame{Type: InventoryType(b[0]), IDs: ids}, nil
	case CmdFetchInventoryData:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, wrapDecode(err)
		}
		ids, err := readHashes(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		return &FetchInventoryDataFrame{Type: InventoryType(b[0]), IDs: ids}, nil
	case CmdSyncBlockchain:
		ids, err := readHashes(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		return &SyncBlockchainFrame{IDs: ids}, nil
	case CmdBlockchainInventory:
		ids, err := readHashes(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		remain, err := readI64(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		return &BlockchainInventoryFrame{IDs: ids, RemainNum: remain}, nil
	case CmdTransactions:
		n, err := readI32(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		txs := make([]*types.Transaction, 0, n)
		for i := int32(0); i < n; i++ {
			tx, err := decodeTransaction(r)
			if err != nil {
				return nil, wrapDecode(err)
			}
			txs = append(txs, tx)
		}
		return &TransactionsFrame{Transactions: txs}, nil
	case CmdBlock:
		block, err := decodeBlock(r)
		if err != nil {
			return nil, wrapDecode(err)
		}
		return &BlockFrame{Block: block}, nil
	default:
		return nil, types.Newf(types.KindMalformedInput, "unknown command code 0x%02x", cmd)
	}
}

func wrapDecode(err error) error {
	return types.Wrap(types.KindMalformedInput, err, "decode frame body")
}

func writeI32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func readI32(r io.Reader) (int32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b[:])), nil
}

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func readI64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b[:])), nil
}

func writeHashes(buf *bytes.Buffer, hashes []types.Hash) {
	writeI32(buf, int32(len(hashes)))
	for _, h := range hashes {
		buf.Write(h[:])
	}
}

func readHashes(r io.Reader) ([]types.Hash, error) {
	n, err := readI32(r)
	if err != nil {
		return nil, err
	}
	out := make([]types.Hash, n)
	for i := range out {
		if _, err := io.ReadFull(r, out[i][:]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// encodeTransaction/decodeTransaction reuse the same raw_data encoding the
// executor hashes and recovers signatures over (spec §9 "cache the digest
// across verification and recovery" — the wire form and the hashed form
// must be the same bytes).
func encodeTransaction(buf *bytes.Buffer, tx *types.Transaction) {
	raw := codec.EncodeTransactionRawData(&tx.RawData, executor.EncodeParameter)
	writeI32(buf, int32(len(raw)))
	buf.Write(raw)
	writeI32(buf, int32(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		buf.Write(sig[:])
	}
}

// decodeTransaction fully reconstructs RawData (not just its bytes) via
// codec.DecodeTransactionRawData, so a peer-received transaction is
// immediately usable by manager.PushBlock/executor.Execute rather than only
// by signature verification.
func decodeTransaction(r io.Reader) (*types.Transaction, error) {
	rawLen, err := readI32(r)
	if err != nil {
		return nil, err
	}
	raw := make([]byte, rawLen)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, err
	}
	rawData, err := codec.DecodeTransactionRawData(raw, executor.DecodeParameter)
	if err != nil {
		return nil, err
	}
	sigCount, err := readI32(r)
	if err != nil {
		return nil, err
	}
	sigs := make([][65]byte, sigCount)
	for i := range sigs {
		if _, err := io.ReadFull(r, sigs[i][:]); err != nil {
			return nil, err
		}
	}
	return &types.Transaction{RawData: rawData, Signatures: sigs}, nil
}

func encodeBlock(buf *bytes.Buffer, block *types.Block) {
	headerRaw := codec.EncodeBlockHeaderRaw(&block.Header.RawData)
	writeI32(buf, int32(len(headerRaw)))
	buf.Write(headerRaw)
	buf.Write(block.Header.Signature[:])
	writeI32(buf, int32(len(block.Transactions)))
	for _, tx := range block.Transactions {
		encodeTransaction(buf, tx)
	}
}

// decodeBlock fully reconstructs BlockHeaderRaw via codec.DecodeBlockHeaderRaw
// so a peer-received block carries real Number/Timestamp/WitnessAddress
// fields and can be handed straight to manager.PushBlock, not just
// re-verified for its signature.
func decodeBlock(r io.Reader) (*types.Block, error) {
	headerLen, err := readI32(r)
	if err != nil {
		return nil, err
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}
	headerRaw, err := codec.DecodeBlockHeaderRaw(header)
	if err != nil {
		return nil, err
	}
	var sig [65]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, err
	}
	n, err := readI32(r)
	if err != nil {
		return nil, err
	}
	txs := make([]*types.Transaction, 0, n)
	for i := int32(0); i < n; i++ {
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
