package fdt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// header is the fixed blob header.
type header struct {
	magic           uint32
	totalSize       uint32
	offStruct       uint32
	offStrings      uint32
	offMemRsvmap    uint32
	version         uint32
	lastCompVersion uint32
	bootCPU         uint32
	sizeStrings     uint32
	sizeStruct      uint32
}

// ReadFile decodes the blob stored at path.
func ReadFile(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	tree, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return tree, nil
}

// Decode parses a blob into a Tree. Node paths and the phandle map are
// populated before it returns.
func Decode(data []byte) (*Tree, error) {
	h, err := readHeader(data)
	if err != nil {
		return nil, err
	}

	structEnd := uint64(h.offStruct) + uint64(h.sizeStruct)
	stringsEnd := uint64(h.offStrings) + uint64(h.sizeStrings)
	if structEnd > uint64(len(data)) || stringsEnd > uint64(len(data)) {
		return nil, fmt.Errorf("%w: blocks extend past %d bytes", ErrTruncated, len(data))
	}

	d := &decoder{
		structs: data[h.offStruct:structEnd],
		strs:    data[h.offStrings:stringsEnd],
	}

	tree := &Tree{BootCPU: h.bootCPU}
	tree.Reservations, err = readReservations(data, h.offMemRsvmap)
	if err != nil {
		return nil, err
	}

	tree.Root, err = d.readTree()
	if err != nil {
		return nil, err
	}
	if err := tree.Index(); err != nil {
		return nil, err
	}
	return tree, nil
}

func readHeader(data []byte) (header, error) {
	if len(data) < HeaderSize {
		return header{}, fmt.Errorf("%w: header needs %d bytes, have %d", ErrTruncated, HeaderSize, len(data))
	}

	var h header
	fields := []*uint32{
		&h.magic, &h.totalSize, &h.offStruct, &h.offStrings, &h.offMemRsvmap,
		&h.version, &h.lastCompVersion, &h.bootCPU, &h.sizeStrings, &h.sizeStruct,
	}
	for i, f := range fields {
		*f = binary.BigEndian.Uint32(data[4*i:])
	}

	if h.magic != Magic {
		return header{}, fmt.Errorf("%w: 0x%08x", ErrBadMagic, h.magic)
	}
	if h.version < LastCompatibleVersion || h.lastCompVersion > Version {
		return header{}, fmt.Errorf("%w: %d (compatible with %d)", ErrBadVersion, h.version, h.lastCompVersion)
	}
	if uint64(h.totalSize) > uint64(len(data)) {
		return header{}, fmt.Errorf("%w: header claims %d bytes, have %d", ErrTruncated, h.totalSize, len(data))
	}
	return h, nil
}

func readReservations(data []byte, off uint32) ([]Reservation, error) {
	var out []Reservation
	for pos := uint64(off); ; pos += 16 {
		if pos+16 > uint64(len(data)) {
			return nil, fmt.Errorf("%w: memory reservation block", ErrTruncated)
		}
		r := Reservation{
			Address: binary.BigEndian.Uint64(data[pos:]),
			Size:    binary.BigEndian.Uint64(data[pos+8:]),
		}
		if r.Address == 0 && r.Size == 0 {
			return out, nil
		}
		out = append(out, r)
	}
}

type decoder struct {
	structs []byte
	strs    []byte
	pos     int
}

func (d *decoder) u32() (uint32, error) {
	if d.pos+4 > len(d.structs) {
		return 0, fmt.Errorf("%w: structure block at offset %d", ErrTruncated, d.pos)
	}
	v := binary.BigEndian.Uint32(d.structs[d.pos:])
	d.pos += 4
	return v, nil
}

// token returns the next token, skipping NOPs.
func (d *decoder) token() (uint32, error) {
	for {
		tok, err := d.u32()
		if err != nil {
			return 0, err
		}
		if tok != tokenNop {
			return tok, nil
		}
	}
}

func (d *decoder) align() {
	d.pos = (d.pos + 3) &^ 3
}

func (d *decoder) readTree() (*Node, error) {
	tok, err := d.token()
	if err != nil {
		return nil, err
	}
	if tok != tokenBeginNode {
		return nil, fmt.Errorf("%w: 0x%x at start of structure block", ErrBadToken, tok)
	}
	root, err := d.readNode()
	if err != nil {
		return nil, err
	}
	tok, err = d.token()
	if err != nil {
		return nil, err
	}
	if tok != tokenEnd {
		return nil, fmt.Errorf("%w: 0x%x after root node", ErrBadToken, tok)
	}
	return root, nil
}

// readNode reads a node body; the BEGIN_NODE token has been consumed.
func (d *decoder) readNode() (*Node, error) {
	end := bytes.IndexByte(d.structs[d.pos:], 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: node name at offset %d", ErrBadString, d.pos)
	}
	node := NewNode(string(d.structs[d.pos : d.pos+end]))
	d.pos += end + 1
	d.align()

	for {
		tok, err := d.token()
		if err != nil {
			return nil, err
		}
		switch tok {
		case tokenProp:
			p, err := d.readProp()
			if err != nil {
				return nil, fmt.Errorf("node %q: %w", node.Name, err)
			}
			node.Props = append(node.Props, p)
		case tokenBeginNode:
			child, err := d.readNode()
			if err != nil {
				return nil, err
			}
			node.Subnodes = append(node.Subnodes, child)
		case tokenEndNode:
			return node, nil
		default:
			return nil, fmt.Errorf("%w: 0x%x in node %q", ErrBadToken, tok, node.Name)
		}
	}
}

func (d *decoder) readProp() (*Prop, error) {
	length, err := d.u32()
	if err != nil {
		return nil, err
	}
	nameOff, err := d.u32()
	if err != nil {
		return nil, err
	}
	if d.pos+int(length) > len(d.structs) {
		return nil, fmt.Errorf("%w: property value of %d bytes", ErrTruncated, length)
	}
	raw := append([]byte(nil), d.structs[d.pos:d.pos+int(length)]...)
	d.pos += int(length)
	d.align()

	if int(nameOff) >= len(d.strs) {
		return nil, fmt.Errorf("%w: name offset %d outside strings block", ErrTruncated, nameOff)
	}
	end := bytes.IndexByte(d.strs[nameOff:], 0)
	if end < 0 {
		return nil, fmt.Errorf("%w: property name at offset %d", ErrBadString, nameOff)
	}
	return &Prop{
		Name:  string(d.strs[nameOff : int(nameOff)+end]),
		Value: ParseValue(raw),
	}, nil
}
