// Package fingerprint implements Karp-Rabin fingerprints over the field.Value algebra.
//
// A fingerprint of a byte string s of length ℓ, under random base r, is
//
//	fp(s) = Σ s[i]·r^i (mod p), index 0 first.
//
// Three composition laws tie together the fingerprint of a string to the fingerprints of a
// prefix/suffix split of it; every other derivation in this module (and in the bg package) is
// built from these three:
//
//	fp(prefix∥suffix) = fp(prefix) + r^|prefix|·fp(suffix)
//	fp(suffix)         = (fp(all) - fp(prefix))·r^-|prefix|
//	fp(prefix)          = fp(all) - r^|prefix|·fp(suffix)
package fingerprint

import "github.com/coregx/matchbench/field"

// FP is an element of ℤ/pℤ representing a fingerprint.
type FP = uint64

// Of computes the fingerprint of seq under base r in field p, along with r^len(seq) (returned as
// a field.Value so its inverse is ready for later suffix/prefix derivations without recomputing
// it).
func Of(seq []byte, r field.Value, p uint64) (FP, field.Value) {
	var fp FP
	rn := field.Value{V: 1, Inv: 1}
	for _, b := range seq {
		fp = (fp + FP(b)*rn.V) % p
		rn = field.Mul(rn, r, p)
	}
	return fp, rn
}

// OfWithPrefix extends a known prefix fingerprint to the fingerprint of the full length-ln
// sequence, given the prefix's fingerprint and length. rn must hold r^len(prefix) on entry (its
// inverse included) and is updated in place to r^ln on return, so repeated calls extending a
// running prefix never need to recompute r^k from scratch.
func OfWithPrefix(seq []byte, ln int, prefixFP FP, prefixLen int, rn *field.Value, r field.Value, p uint64) FP {
	fp := prefixFP
	for _, b := range seq[prefixLen:ln] {
		fp = (fp + FP(b)*rn.V) % p
		*rn = field.Mul(*rn, r, p)
	}
	return fp
}

// Suffix recovers fp(suffix) given fp(prefix∥suffix), fp(prefix), and r^|prefix|.
func Suffix(allFP, prefixFP FP, rPrefix field.Value, p uint64) FP {
	diff := allFP
	if diff < prefixFP {
		diff += p
	}
	diff -= prefixFP
	return (diff * rPrefix.Inv) % p
}

// Prefix recovers fp(prefix) given fp(prefix∥suffix), fp(suffix), and r^|prefix|.
func Prefix(allFP, suffixFP FP, rPrefix field.Value, p uint64) FP {
	suffixPart := (suffixFP * rPrefix.V) % p
	all := allFP
	if all < suffixPart {
		all += p
	}
	return (all - suffixPart) % p
}

// Compose recombines fp(prefix) and fp(suffix) (plus r^|prefix|) into fp(prefix∥suffix).
func Compose(prefixFP, suffixFP FP, rPrefix field.Value, p uint64) FP {
	return (prefixFP + (suffixFP*rPrefix.V)%p) % p
}
