package tree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	"github.com/hupe1980/cakes/codec"
	"github.com/hupe1980/cakes/dataset"
	"github.com/hupe1980/cakes/internal/compress"
)

// File layout:
//
//	magic "CAKT" | version uint16 | codec name (uint8 length + bytes) |
//	compression uint8 | header (uint32 length + codec bytes) |
//	body (uint32 length + compressed block) | CRC32-C of the raw body
//
// The body holds the index permutation as uint32 values followed by the
// clusters in pre-order.
var magic = [4]byte{'C', 'A', 'K', 'T'}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

const (
	formatVersion uint16 = 1
	clusterSize          = 5*4 + 2*8 + 1
)

// ErrDatasetMismatch is returned by Read when the dataset does not match the
// one the tree was built over.
var ErrDatasetMismatch = errors.New("tree: dataset does not match persisted tree")

// ErrCorrupt indicates a malformed tree file.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCorrupt struct {
	Reason string
	cause  error
}

func (e *ErrCorrupt) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("tree: corrupt file: %s: %v", e.Reason, e.cause)
	}
	return fmt.Sprintf("tree: corrupt file: %s", e.Reason)
}

func (e *ErrCorrupt) Unwrap() error { return e.cause }

// Header is the codec-encoded summary stored in front of the cluster table.
type Header struct {
	Dataset     string  `json:"dataset"`
	Cardinality int     `json:"cardinality"`
	Clusters    int     `json:"clusters"`
	Depth       int     `json:"depth"`
	Radius      float64 `json:"radius"`
	Params      Params  `json:"params"`
}

// WriteOptions configures Write.
type WriteOptions struct {
	// Codec encodes the header. nil means codec.Default.
	Codec codec.Codec
	// Compression is applied to the cluster table.
	Compression compress.Type
}

// Write serializes t. The dataset itself is not written; Read needs it again.
func Write[T any](w io.Writer, t *Tree[T], opts WriteOptions) error {
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}
	if len(c.Name()) > math.MaxUint8 {
		return fmt.Errorf("tree: codec name %q too long", c.Name())
	}

	header, err := c.Marshal(Header{
		Dataset:     t.data.Name(),
		Cardinality: t.Cardinality(),
		Clusters:    t.clusters,
		Depth:       t.depth,
		Radius:      t.Radius(),
		Params:      t.params,
	})
	if err != nil {
		return fmt.Errorf("tree: encode header: %w", err)
	}

	body := make([]byte, 0, 4*len(t.indices)+clusterSize*t.clusters)
	for _, idx := range t.indices {
		body = binary.LittleEndian.AppendUint32(body, uint32(idx))
	}
	for cl := range t.Clusters() {
		body = appendCluster(body, cl)
	}
	block, err := compress.Block(opts.Compression, body)
	if err != nil {
		return fmt.Errorf("tree: compress body: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	_ = binary.Write(&buf, binary.LittleEndian, formatVersion)
	buf.WriteByte(byte(len(c.Name())))
	buf.WriteString(c.Name())
	buf.WriteByte(byte(opts.Compression))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(header)))
	buf.Write(header)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(block)))
	buf.Write(block)
	_ = binary.Write(&buf, binary.LittleEndian, crc32.Checksum(body, castagnoli))

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("tree: write: %w", err)
	}
	return nil
}

func appendCluster(b []byte, c *Cluster) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(c.offset))
	b = binary.LittleEndian.AppendUint32(b, uint32(c.cardinality))
	b = binary.LittleEndian.AppendUint32(b, uint32(c.center))
	b = binary.LittleEndian.AppendUint32(b, uint32(c.argRadial))
	b = binary.LittleEndian.AppendUint32(b, uint32(c.depth))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(c.radius))
	b = binary.LittleEndian.AppendUint64(b, math.Float64bits(c.lfd))
	if c.IsLeaf() {
		return append(b, 0)
	}
	return append(b, 1)
}

// ReadHeader reads only the preamble and header of a tree file.
func ReadHeader(r io.Reader) (Header, error) {
	h, _, _, err := readPreamble(r)
	return h, err
}

// Read deserializes a tree written by Write and attaches it to data.
// data must be the dataset the tree was built over.
func Read[T any](r io.Reader, data dataset.Dataset[T]) (*Tree[T], error) {
	h, typ, r, err := readPreamble(r)
	if err != nil {
		return nil, err
	}
	if h.Dataset != data.Name() {
		return nil, fmt.Errorf("%w: tree was built over %q, got %q", ErrDatasetMismatch, h.Dataset, data.Name())
	}
	if h.Cardinality != data.Cardinality() {
		return nil, fmt.Errorf("%w: tree has %d instances, dataset %q has %d", ErrDatasetMismatch, h.Cardinality, data.Name(), data.Cardinality())
	}

	var blockLen uint32
	if err := binary.Read(r, binary.LittleEndian, &blockLen); err != nil {
		return nil, &ErrCorrupt{Reason: "body length", cause: err}
	}
	block := make([]byte, blockLen)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, &ErrCorrupt{Reason: "body", cause: err}
	}
	body, err := compress.Unblock(typ, block)
	if err != nil {
		return nil, &ErrCorrupt{Reason: "decompress body", cause: err}
	}
	var sum uint32
	if err := binary.Read(r, binary.LittleEndian, &sum); err != nil {
		return nil, &ErrCorrupt{Reason: "checksum", cause: err}
	}
	if got := crc32.Checksum(body, castagnoli); got != sum {
		return nil, &ErrCorrupt{Reason: fmt.Sprintf("checksum mismatch: stored %08x, computed %08x", sum, got)}
	}

	n := h.Cardinality
	if len(body) != 4*n+clusterSize*h.Clusters {
		return nil, &ErrCorrupt{Reason: fmt.Sprintf("body has %d bytes, expected %d", len(body), 4*n+clusterSize*h.Clusters)}
	}

	indices := make([]int, n)
	positions := make([]int, n)
	seen := make([]bool, n)
	for i := range indices {
		idx := int(binary.LittleEndian.Uint32(body[4*i:]))
		if idx >= n || seen[idx] {
			return nil, &ErrCorrupt{Reason: fmt.Sprintf("index permutation entry %d is invalid", i)}
		}
		seen[idx] = true
		indices[i] = idx
		positions[idx] = i
	}

	d := &clusterDecoder{buf: body[4*n:], positions: positions}
	root, err := d.decode(0, 0, n)
	if err != nil {
		return nil, err
	}
	if len(d.buf) != 0 {
		return nil, &ErrCorrupt{Reason: "trailing cluster data"}
	}

	return newTree(data, root, indices, h.Params), nil
}

func readPreamble(r io.Reader) (Header, compress.Type, io.Reader, error) {
	var h Header
	var m [4]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "magic", cause: err}
	}
	if m != magic {
		return h, 0, nil, &ErrCorrupt{Reason: "bad magic"}
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "version", cause: err}
	}
	if version != formatVersion {
		return h, 0, nil, &ErrCorrupt{Reason: fmt.Sprintf("unsupported version %d", version)}
	}

	var fixed [1]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "codec name length", cause: err}
	}
	name := make([]byte, fixed[0])
	if _, err := io.ReadFull(r, name); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "codec name", cause: err}
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return h, 0, nil, &ErrCorrupt{Reason: fmt.Sprintf("unknown codec %q", name)}
	}

	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "compression", cause: err}
	}
	typ := compress.Type(fixed[0])

	var headerLen uint32
	if err := binary.Read(r, binary.LittleEndian, &headerLen); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "header length", cause: err}
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "header", cause: err}
	}
	if err := c.Unmarshal(header, &h); err != nil {
		return h, 0, nil, &ErrCorrupt{Reason: "decode header", cause: err}
	}
	if h.Cardinality <= 0 || h.Clusters <= 0 {
		return h, 0, nil, &ErrCorrupt{Reason: "empty tree"}
	}
	return h, typ, r, nil
}

type clusterDecoder struct {
	buf       []byte
	positions []int // dataset index -> tree position
}

// owns reports whether dataset index idx lies in c's range of the permutation.
func (d *clusterDecoder) owns(c *Cluster, idx int) bool {
	if idx < 0 || idx >= len(d.positions) {
		return false
	}
	p := d.positions[idx]
	return p >= c.offset && p < c.offset+c.cardinality
}

// decode reads one cluster in pre-order and checks that it owns exactly the
// range its parent expects, that its center and arg_radial are members, and
// that its radius and LFD are finite and non-negative.
func (d *clusterDecoder) decode(offset, depth, cardinality int) (*Cluster, error) {
	if len(d.buf) < clusterSize {
		return nil, &ErrCorrupt{Reason: "truncated cluster table"}
	}
	b := d.buf[:clusterSize]
	d.buf = d.buf[clusterSize:]

	c := &Cluster{
		offset:      int(binary.LittleEndian.Uint32(b[0:])),
		cardinality: int(binary.LittleEndian.Uint32(b[4:])),
		center:      int(binary.LittleEndian.Uint32(b[8:])),
		argRadial:   int(binary.LittleEndian.Uint32(b[12:])),
		depth:       int(binary.LittleEndian.Uint32(b[16:])),
		radius:      math.Float64frombits(binary.LittleEndian.Uint64(b[20:])),
		lfd:         math.Float64frombits(binary.LittleEndian.Uint64(b[28:])),
	}
	if c.offset != offset || c.cardinality != cardinality || c.depth != depth || c.cardinality == 0 {
		return nil, &ErrCorrupt{Reason: fmt.Sprintf("cluster %s does not match expected range %d:%d@%d", c, offset, cardinality, depth)}
	}
	if !d.owns(c, c.center) {
		return nil, &ErrCorrupt{Reason: fmt.Sprintf("cluster %s has center %d outside its instances", c, c.center)}
	}
	if !d.owns(c, c.argRadial) {
		return nil, &ErrCorrupt{Reason: fmt.Sprintf("cluster %s has arg_radial %d outside its instances", c, c.argRadial)}
	}
	if !validMeasure(c.radius) || !validMeasure(c.lfd) {
		return nil, &ErrCorrupt{Reason: fmt.Sprintf("cluster %s has invalid radius %v or lfd %v", c, c.radius, c.lfd)}
	}
	if b[36] == 0 {
		return c, nil
	}

	if len(d.buf) < clusterSize {
		return nil, &ErrCorrupt{Reason: "truncated cluster table"}
	}
	leftCard := int(binary.LittleEndian.Uint32(d.buf[4:]))
	if leftCard <= 0 || leftCard >= cardinality {
		return nil, &ErrCorrupt{Reason: fmt.Sprintf("cluster %s has invalid left child", c)}
	}

	var err error
	if c.left, err = d.decode(offset, depth+1, leftCard); err != nil {
		return nil, err
	}
	if c.right, err = d.decode(offset+leftCard, depth+1, cardinality-leftCard); err != nil {
		return nil, err
	}
	return c, nil
}

func validMeasure(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}
