package fdt

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// Encode serializes a tree into a version 17 blob. Property names are
// deduplicated in the strings block.
func Encode(t *Tree) ([]byte, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("encode: tree has no root")
	}

	e := &encoder{offsets: make(map[string]uint32)}
	e.writeNode(t.Root)
	e.u32(tokenEnd)

	var rsv bytes.Buffer
	for _, r := range t.Reservations {
		_ = binary.Write(&rsv, binary.BigEndian, r.Address)
		_ = binary.Write(&rsv, binary.BigEndian, r.Size)
	}
	rsv.Write(make([]byte, 16))

	offRsv := uint32(HeaderSize)
	offStruct := offRsv + uint32(rsv.Len())
	offStrings := offStruct + uint32(e.structs.Len())
	total := offStrings + uint32(e.strs.Len())

	out := make([]byte, HeaderSize, total)
	fields := []uint32{
		Magic, total, offStruct, offStrings, offRsv,
		Version, LastCompatibleVersion, t.BootCPU,
		uint32(e.strs.Len()), uint32(e.structs.Len()),
	}
	for i, f := range fields {
		binary.BigEndian.PutUint32(out[4*i:], f)
	}
	out = append(out, rsv.Bytes()...)
	out = append(out, e.structs.Bytes()...)
	out = append(out, e.strs.Bytes()...)
	return out, nil
}

// WriteFile encodes a tree and writes it to path.
func WriteFile(path string, t *Tree) error {
	data, err := Encode(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

type encoder struct {
	structs bytes.Buffer
	strs    bytes.Buffer
	offsets map[string]uint32
}

func (e *encoder) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.structs.Write(b[:])
}

func (e *encoder) pad() {
	for e.structs.Len()%4 != 0 {
		e.structs.WriteByte(0)
	}
}

func (e *encoder) nameOffset(name string) uint32 {
	if off, ok := e.offsets[name]; ok {
		return off
	}
	off := uint32(e.strs.Len())
	e.strs.WriteString(name)
	e.strs.WriteByte(0)
	e.offsets[name] = off
	return off
}

func (e *encoder) writeNode(n *Node) {
	e.u32(tokenBeginNode)
	e.structs.WriteString(n.Name)
	e.structs.WriteByte(0)
	e.pad()

	for _, p := range n.Props {
		raw := p.Value.Bytes()
		e.u32(tokenProp)
		e.u32(uint32(len(raw)))
		e.u32(e.nameOffset(p.Name))
		e.structs.Write(raw)
		e.pad()
	}
	for _, child := range n.Subnodes {
		e.writeNode(child)
	}
	e.u32(tokenEndNode)
}
