package term

import (
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// ID is a fingerprint of a term
type ID [32]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Fingerprint hashes the canonical encoding of t.
// Alpha-equivalent terms have the same fingerprint.
func Fingerprint(t Term) (ret ID) {
	h := blake3.New(32, nil)
	h.Write(AppendCanonical(nil, t))
	h.Sum(ret[:0])
	return ret
}

const (
	tagBVar = iota + 1
	tagLocal
	tagConst
	tagSort
	tagLit
	tagApp
	tagLam
	tagPi
	tagLet
	tagMacro
)

// AppendCanonical appends an encoding of t which ignores binder names and local display names.
func AppendCanonical(out []byte, t Term) []byte {
	switch t := t.(type) {
	case BVar:
		out = append(out, tagBVar)
		return binary.AppendUvarint(out, uint64(t.Idx))
	case Local:
		out = append(out, tagLocal)
		out = binary.AppendUvarint(out, uint64(t.Idx))
		return binary.AppendUvarint(out, uint64(t.Gen))
	case Const:
		out = append(out, tagConst)
		return appendString(out, string(t.Name))
	case Sort:
		out = append(out, tagSort)
		return binary.AppendUvarint(out, uint64(t.Level))
	case Lit:
		out = append(out, tagLit)
		return binary.AppendUvarint(out, t.Nat)
	case App:
		out = append(out, tagApp)
		out = AppendCanonical(out, t.Fn)
		return AppendCanonical(out, t.Arg)
	case Lam:
		out = append(out, tagLam, byte(t.Binder.Info))
		out = AppendCanonical(out, t.Binder.Type)
		return AppendCanonical(out, t.Body)
	case Pi:
		out = append(out, tagPi, byte(t.Binder.Info))
		out = AppendCanonical(out, t.Binder.Type)
		return AppendCanonical(out, t.Body)
	case Let:
		out = append(out, tagLet)
		out = AppendCanonical(out, t.Type)
		out = AppendCanonical(out, t.Value)
		return AppendCanonical(out, t.Body)
	case Macro:
		out = append(out, tagMacro)
		out = appendString(out, t.Def.MacroName())
		attrs := t.Def.AppendAttrs(nil)
		out = binary.AppendUvarint(out, uint64(len(attrs)))
		out = append(out, attrs...)
		out = binary.AppendUvarint(out, uint64(len(t.Args)))
		for _, a := range t.Args {
			out = AppendCanonical(out, a)
		}
		return out
	default:
		panic(t)
	}
}

func appendString(out []byte, x string) []byte {
	out = binary.AppendUvarint(out, uint64(len(x)))
	return append(out, x...)
}
