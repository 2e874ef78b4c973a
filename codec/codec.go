// Package codec implements snapshot persistence for packed entity
// collections: a little-endian binary layout with per-column compressed
// blocks and a CRC32 integrity check.
//
// Indexes are not serialized. The header records which attributes were
// indexed, and Read rebuilds those indexes by backfilling from the decoded
// shards, so boxed values never need a codec of their own.
package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/entigo/entity"
	"github.com/hupe1980/entigo/store"
)

const (
	formatMagic   uint32 = 0x45504B31 // "EPK1"
	formatVersion uint16 = 1
)

// DefaultCompression is used when callers have no preference.
const DefaultCompression = CompressionZSTD

var (
	// ErrBadMagic indicates the input is not an entigo snapshot.
	ErrBadMagic = errors.New("codec: bad magic")
	// ErrBadVersion indicates an unsupported snapshot version.
	ErrBadVersion = errors.New("codec: unsupported version")
	// ErrCorrupted indicates a checksum mismatch.
	ErrCorrupted = errors.New("codec: checksum mismatch")
)

// Write serializes a finalized collection to w and returns the number of
// bytes written.
//
// Column payloads are encoded and compressed concurrently, then written in
// schema-position order.
func Write(w io.Writer, c *store.PackedCollection, compression Compression) (int64, error) {
	schema := c.Schema()
	n := schema.Len()
	count := c.Len()

	var indexMask uint32
	for i := 0; i < n; i++ {
		if c.Index(i) != nil {
			indexMask |= 1 << uint(i)
		}
	}

	blocks := make([][]byte, n)
	g := new(errgroup.Group)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			payload, err := encodeColumn(c.Shard(i), schema.Attribute(i).Type, count)
			if err != nil {
				return err
			}
			block, err := compressBlock(payload, compression)
			if err != nil {
				return err
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	if err := writeHeader(bw, c, compression, indexMask); err != nil {
		return cw.n, err
	}

	crc := crc32.NewIEEE()
	mw := io.MultiWriter(bw, crc)
	for _, block := range blocks {
		if _, err := mw.Write(block); err != nil {
			return cw.n, err
		}
	}

	var checksum [4]byte
	binary.LittleEndian.PutUint32(checksum[:], crc.Sum32())
	if _, err := bw.Write(checksum[:]); err != nil {
		return cw.n, err
	}
	if err := bw.Flush(); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// Read deserializes a collection from r, verifying the checksum and
// rebuilding any indexes recorded in the header.
func Read(r io.Reader) (*store.PackedCollection, error) {
	br := bufio.NewReader(r)

	entityType, schema, compression, indexMask, count, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	crc := crc32.NewIEEE()
	tr := io.TeeReader(br, crc)

	n := schema.Len()
	shards := make([]store.Shard, n)
	for i := 0; i < n; i++ {
		var blockHeader [blockHeaderSize]byte
		if _, err := io.ReadFull(tr, blockHeader[:]); err != nil {
			return nil, err
		}
		uncompressedSize := binary.LittleEndian.Uint32(blockHeader[0:])
		storedSize := binary.LittleEndian.Uint32(blockHeader[4:])
		if storedSize == 0 {
			storedSize = uncompressedSize
		}
		// Fixed-width columns have a size derivable from the record count.
		// Reject a disagreeing header before any buffer is sized from it.
		if expected, fixed := columnPayloadSize(schema.Attribute(i).Type, count); fixed && uncompressedSize != uint32(expected) {
			return nil, errors.New("codec: column payload size mismatch")
		}
		// Stream the stored bytes so a corrupt size field cannot force a
		// large upfront allocation; the buffer grows only with real input.
		var body bytes.Buffer
		if _, err := io.CopyN(&body, tr, int64(storedSize)); err != nil {
			return nil, err
		}
		payload, err := decompressBlock(blockHeader[:], body.Bytes(), compression)
		if err != nil {
			return nil, err
		}
		shard, err := decodeColumn(payload, schema.Attribute(i).Type, count)
		if err != nil {
			return nil, err
		}
		shards[i] = shard
	}

	var checksum [4]byte
	if _, err := io.ReadFull(br, checksum[:]); err != nil {
		return nil, err
	}
	if binary.LittleEndian.Uint32(checksum[:]) != crc.Sum32() {
		return nil, ErrCorrupted
	}

	// Rebuild indexes by backfill, the same path AddIndex takes on a live
	// builder.
	indexes := make([]store.Index, n)
	for i := 0; i < n; i++ {
		if indexMask&(1<<uint(i)) == 0 {
			continue
		}
		ib := store.NewIndexBuilder(schema.Attribute(i).Type)
		for pos := 0; pos < count; pos++ {
			ib.Add(shards[i].Value(pos), pos)
		}
		indexes[i] = ib.Build()
	}

	return store.NewPackedCollection(entityType, schema, shards, indexes), nil
}

func writeHeader(w io.Writer, c *store.PackedCollection, compression Compression, indexMask uint32) error {
	schema := c.Schema()

	var fixed [20]byte
	binary.LittleEndian.PutUint32(fixed[0:], formatMagic)
	binary.LittleEndian.PutUint16(fixed[4:], formatVersion)
	fixed[6] = byte(compression)
	fixed[7] = byte(schema.Len())
	binary.LittleEndian.PutUint64(fixed[8:], uint64(c.Len()))
	binary.LittleEndian.PutUint32(fixed[16:], indexMask)
	if _, err := w.Write(fixed[:]); err != nil {
		return err
	}

	if err := writeString(w, string(c.EntityType())); err != nil {
		return err
	}
	for i := 0; i < schema.Len(); i++ {
		attr := schema.Attribute(i)
		if err := writeString(w, attr.Name); err != nil {
			return err
		}
		if _, err := w.Write([]byte{byte(attr.Type)}); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r *bufio.Reader) (entity.Type, *entity.Schema, Compression, uint32, int, error) {
	var fixed [20]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return "", nil, 0, 0, 0, err
	}
	if binary.LittleEndian.Uint32(fixed[0:]) != formatMagic {
		return "", nil, 0, 0, 0, ErrBadMagic
	}
	if binary.LittleEndian.Uint16(fixed[4:]) != formatVersion {
		return "", nil, 0, 0, 0, ErrBadVersion
	}
	compression := Compression(fixed[6])
	attrCount := int(fixed[7])
	count := int(binary.LittleEndian.Uint64(fixed[8:]))
	indexMask := binary.LittleEndian.Uint32(fixed[16:])

	et, err := readString(r)
	if err != nil {
		return "", nil, 0, 0, 0, err
	}
	attrs := make([]entity.Attribute, attrCount)
	for i := range attrs {
		name, err := readString(r)
		if err != nil {
			return "", nil, 0, 0, 0, err
		}
		typ, err := r.ReadByte()
		if err != nil {
			return "", nil, 0, 0, 0, err
		}
		attrs[i] = entity.Attribute{Name: name, Type: entity.AttributeType(typ)}
	}
	schema, err := entity.NewSchema(attrs...)
	if err != nil {
		return "", nil, 0, 0, 0, fmt.Errorf("codec: invalid schema: %w", err)
	}
	return entity.Type(et), schema, compression, indexMask, count, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.New("codec: string too long")
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r *bufio.Reader) (string, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	buf := make([]byte, binary.LittleEndian.Uint16(lenBuf[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// encodeColumn produces the uncompressed payload for one shard.
//
// Numeric columns are laid out as count fixed-width values followed by a
// packed presence bitmap. Everything else is a JSON array of values.
func encodeColumn(shard store.Shard, t entity.AttributeType, count int) ([]byte, error) {
	switch t {
	case entity.TypeInt, entity.TypeFloat:
		buf := make([]byte, count*8+bitmapBytes(count))
		bitmap := buf[count*8:]
		for pos := 0; pos < count; pos++ {
			v := shard.Value(pos)
			if v.IsNull() {
				continue
			}
			var bits uint64
			if t == entity.TypeInt {
				iv, _ := v.AsInt64()
				bits = uint64(iv)
			} else {
				fv, _ := v.AsFloat64()
				bits = math.Float64bits(fv)
			}
			binary.LittleEndian.PutUint64(buf[pos*8:], bits)
			bitmap[pos>>3] |= 1 << (uint(pos) & 7)
		}
		return buf, nil

	case entity.TypeInt32:
		buf := make([]byte, count*4+bitmapBytes(count))
		bitmap := buf[count*4:]
		for pos := 0; pos < count; pos++ {
			iv, ok := shard.Value(pos).AsInt32()
			if !ok {
				continue
			}
			binary.LittleEndian.PutUint32(buf[pos*4:], uint32(iv))
			bitmap[pos>>3] |= 1 << (uint(pos) & 7)
		}
		return buf, nil

	default:
		vals := make([]entity.Value, count)
		for pos := 0; pos < count; pos++ {
			vals[pos] = shard.Value(pos)
		}
		return json.Marshal(vals)
	}
}

func decodeColumn(payload []byte, t entity.AttributeType, count int) (store.Shard, error) {
	sb := store.NewShardBuilder(t)

	switch t {
	case entity.TypeInt, entity.TypeFloat:
		if len(payload) != count*8+bitmapBytes(count) {
			return nil, errors.New("codec: column payload size mismatch")
		}
		bitmap := payload[count*8:]
		for pos := 0; pos < count; pos++ {
			if bitmap[pos>>3]&(1<<(uint(pos)&7)) == 0 {
				sb.Skip()
				continue
			}
			bits := binary.LittleEndian.Uint64(payload[pos*8:])
			var v entity.Value
			if t == entity.TypeInt {
				v = entity.Int(int64(bits))
			} else {
				v = entity.Float(math.Float64frombits(bits))
			}
			if err := sb.Add(v); err != nil {
				return nil, err
			}
		}

	case entity.TypeInt32:
		if len(payload) != count*4+bitmapBytes(count) {
			return nil, errors.New("codec: column payload size mismatch")
		}
		bitmap := payload[count*4:]
		for pos := 0; pos < count; pos++ {
			if bitmap[pos>>3]&(1<<(uint(pos)&7)) == 0 {
				sb.Skip()
				continue
			}
			iv := int32(binary.LittleEndian.Uint32(payload[pos*4:]))
			if err := sb.Add(entity.Int32(iv)); err != nil {
				return nil, err
			}
		}

	default:
		var vals []entity.Value
		if err := json.Unmarshal(payload, &vals); err != nil {
			return nil, err
		}
		if len(vals) != count {
			return nil, errors.New("codec: column length mismatch")
		}
		for _, v := range vals {
			if err := sb.Add(v); err != nil {
				return nil, err
			}
		}
	}

	return sb.Build(), nil
}

func bitmapBytes(count int) int { return (count + 7) / 8 }

// columnPayloadSize returns the exact uncompressed payload size for columns
// with a fixed-width encoding. JSON-encoded generic columns have no derivable
// size and report fixed=false.
func columnPayloadSize(t entity.AttributeType, count int) (size int, fixed bool) {
	switch t {
	case entity.TypeInt, entity.TypeFloat:
		return count*8 + bitmapBytes(count), true
	case entity.TypeInt32:
		return count*4 + bitmapBytes(count), true
	default:
		return 0, false
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
