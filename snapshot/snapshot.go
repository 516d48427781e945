// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package snapshot serializes a debug-time view of an ir.GlobalStore for
// external inspection — it is not part of the evaluation core and holds
// no references into any live ir.LocalStore. It exists purely so tooling
// (see cmd/l1ir-inspect) can dump and diff the set of registered blocks
// without needing access to the frontend that built them.
package snapshot

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/crypto/blake2b"

	"github.com/l1lang/ir/ir"
)

const magic = "L1IRSNAP"

// ErrForeignBlock is returned by Write when the store contains a foreign
// block: a foreign block's callback has no durable representation, so a
// snapshot can only ever describe the native portion of a GlobalStore.
var ErrForeignBlock = errors.New("snapshot: global store contains a foreign block, which cannot be serialized")

// Write serializes every native block in g, in registration order, to w.
// The payload is blake2b-256 fingerprinted and gzip-compressed so two
// snapshots of structurally identical stores compare equal byte-for-byte
// regardless of when they were taken.
func Write(w io.Writer, g *ir.GlobalStore) error {
	var payload bytes.Buffer
	payload.WriteString(magic)

	n := g.Len()
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(n))
	payload.Write(countBuf[:])

	for addr := 0; addr < n; addr++ {
		typ := g.BlockType(ir.GlobalAddr(addr))
		if typ == ir.BlockForeignFunction {
			return fmt.Errorf("snapshot: block %d: %w", addr, ErrForeignBlock)
		}
		slots, ok := g.NativeSlots(ir.GlobalAddr(addr))
		if !ok {
			return fmt.Errorf("snapshot: block %d: %w", addr, ErrForeignBlock)
		}
		payload.WriteByte(byte(typ))
		var slotCountBuf [4]byte
		binary.LittleEndian.PutUint32(slotCountBuf[:], uint32(len(slots)))
		payload.Write(slotCountBuf[:])
		for _, s := range slots {
			var rec [7]byte
			rec[0] = byte(s.Type)
			binary.LittleEndian.PutUint16(rec[1:3], s.Operand0)
			binary.LittleEndian.PutUint16(rec[3:5], s.Operand1)
			binary.LittleEndian.PutUint16(rec[5:7], s.Operand2)
			payload.Write(rec[:])
		}
	}

	digest := blake2b.Sum256(payload.Bytes())

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(digest[:]); err != nil {
		return fmt.Errorf("snapshot: writing digest: %w", err)
	}
	gz, err := gzip.NewWriterLevel(bw, gzip.BestSpeed)
	if err != nil {
		return fmt.Errorf("snapshot: creating gzip writer: %w", err)
	}
	if _, err := gz.Write(payload.Bytes()); err != nil {
		return fmt.Errorf("snapshot: compressing payload: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("snapshot: closing gzip writer: %w", err)
	}
	return bw.Flush()
}

// Stats summarizes a snapshot without fully reconstructing a GlobalStore.
type Stats struct {
	BlockCount        int
	SlotCount         int
	BlockCountByType  map[ir.BlockType]int
	Digest            [32]byte
	DigestMatchesBody bool
}

// decodedBlock is one native block's type and prototype slot sequence as
// recovered from a snapshot payload.
type decodedBlock struct {
	typ   ir.BlockType
	slots []ir.Slot
}

// decode ungzips and parses r into its raw blocks, verifying the embedded
// blake2b digest against the decompressed payload. Both Read and
// Reconstruct share this so the wire format is parsed in exactly one
// place.
func decode(r io.Reader) (blocks []decodedBlock, digestOK bool, digest [32]byte, err error) {
	br := bufio.NewReader(r)
	var wantDigest [32]byte
	if _, err := io.ReadFull(br, wantDigest[:]); err != nil {
		return nil, false, digest, fmt.Errorf("snapshot: reading digest: %w", err)
	}
	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, false, digest, fmt.Errorf("snapshot: opening gzip stream: %w", err)
	}
	defer gz.Close()
	payload, err := io.ReadAll(gz)
	if err != nil {
		return nil, false, digest, fmt.Errorf("snapshot: decompressing payload: %w", err)
	}
	if len(payload) < len(magic) || string(payload[:len(magic)]) != magic {
		return nil, false, digest, fmt.Errorf("snapshot: bad magic header")
	}
	digest = blake2b.Sum256(payload)
	digestOK = digest == wantDigest

	off := len(magic)
	if off+4 > len(payload) {
		return nil, false, digest, fmt.Errorf("snapshot: truncated block count")
	}
	blockCount := int(binary.LittleEndian.Uint32(payload[off : off+4]))
	off += 4

	blocks = make([]decodedBlock, 0, blockCount)
	for i := 0; i < blockCount; i++ {
		if off+5 > len(payload) {
			return nil, false, digest, fmt.Errorf("snapshot: truncated block header at index %d", i)
		}
		typ := ir.BlockType(payload[off])
		off++
		slotCount := int(binary.LittleEndian.Uint32(payload[off : off+4]))
		off += 4
		need := slotCount * 7
		if off+need > len(payload) {
			return nil, false, digest, fmt.Errorf("snapshot: truncated slot data at block %d", i)
		}
		slots := make([]ir.Slot, slotCount)
		for j := 0; j < slotCount; j++ {
			rec := payload[off : off+7]
			slots[j] = ir.MakeSlot(
				ir.SlotType(rec[0]),
				binary.LittleEndian.Uint16(rec[1:3]),
				binary.LittleEndian.Uint16(rec[3:5]),
				binary.LittleEndian.Uint16(rec[5:7]),
			)
			off += 7
		}
		blocks = append(blocks, decodedBlock{typ: typ, slots: slots})
	}
	return blocks, digestOK, digest, nil
}

// Read parses a snapshot written by Write and reports summary statistics,
// verifying the embedded blake2b digest against the decompressed payload.
func Read(r io.Reader) (*Stats, error) {
	blocks, digestOK, digest, err := decode(r)
	if err != nil {
		return nil, err
	}
	stats := &Stats{
		BlockCountByType:  make(map[ir.BlockType]int),
		Digest:            digest,
		DigestMatchesBody: digestOK,
	}
	for _, b := range blocks {
		stats.BlockCount++
		stats.BlockCountByType[b.typ]++
		stats.SlotCount += len(b.slots)
	}
	return stats, nil
}

// Reconstruct parses a snapshot written by Write and rebuilds a
// *ir.GlobalStore from its native blocks, re-running them through
// CreateNativeBlock in registration order so hash-consing and the
// ADT-nominal-identity rule both apply exactly as they would to a
// frontend building the same blocks directly. A nil cfg uses
// DefaultConfig. Write refuses any store that holds a foreign block, so a
// snapshot only ever describes an all-native store, and the returned
// store holds only native blocks.
func Reconstruct(r io.Reader, cfg *ir.Config) (*ir.GlobalStore, error) {
	blocks, digestOK, _, err := decode(r)
	if err != nil {
		return nil, err
	}
	if !digestOK {
		return nil, fmt.Errorf("snapshot: digest mismatch, payload is corrupted")
	}
	g := ir.NewGlobalStore(cfg)
	for i, b := range blocks {
		if len(b.slots) == 0 {
			return nil, fmt.Errorf("snapshot: block %d: empty prototype sequence", i)
		}
		g.CreateNativeBlock(b.typ, b.slots)
	}
	return g, nil
}
