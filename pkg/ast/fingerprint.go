package ast

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes the full structure of e: kinds, payloads, types and
// operands. Two trees with equal fingerprints are, for all practical
// purposes, identical; positions are not part of the hash.
func Fingerprint(e *Expr) uint64 {
	d := xxhash.New()
	hashExpr(d, e)
	return d.Sum64()
}

// FingerprintStmt hashes a statement tree the same way.
func FingerprintStmt(s *Stmt) uint64 {
	d := xxhash.New()
	hashStmt(d, s)
	return d.Sum64()
}

func writeInt(d *xxhash.Digest, v int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	d.Write(buf[:])
}

func writeString(d *xxhash.Digest, s string) {
	writeInt(d, int64(len(s)))
	d.WriteString(s)
}

func hashExpr(d *xxhash.Digest, e *Expr) {
	if e == nil {
		writeInt(d, -1)
		return
	}
	writeInt(d, int64(e.Kind))
	writeInt(d, int64(e.Op))
	writeInt(d, int64(e.Statement))
	writeInt(d, e.Value)
	writeString(d, e.Name)
	writeString(d, e.Str)
	writeString(d, e.Type.String())
	if e.Of != nil {
		writeString(d, e.Of.String())
	}
	writeInt(d, int64(len(e.Operands)))
	for _, op := range e.Operands {
		hashExpr(d, op)
	}
	if e.Body != nil {
		hashStmt(d, e.Body)
	}
}

func hashStmt(d *xxhash.Digest, s *Stmt) {
	if s == nil {
		writeInt(d, -1)
		return
	}
	writeInt(d, int64(s.Kind))
	hashExpr(d, s.Expr)
	hashStmt(d, s.Then)
	hashStmt(d, s.Else)
	writeInt(d, int64(len(s.Stmts)))
	for _, st := range s.Stmts {
		hashStmt(d, st)
	}
	if s.Decl != nil {
		writeString(d, s.Decl.Name)
		writeString(d, s.Decl.Type.String())
		hashExpr(d, s.Decl.Init)
	}
}
