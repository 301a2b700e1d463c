package table

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/reflexndn/rfwd/core"
	"github.com/reflexndn/rfwd/enc"
)

// tokenSource generates candidate 32-bit tokens, grounded on the teacher's
// crypto/rand nonce generator (std/engine/basic/timer.go).
type tokenSource interface {
	next() uint32
}

type defaultTokenSource struct{}

func (defaultTokenSource) next() uint32 {
	var buf [4]byte
	rand.Read(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

// maxTokenRetries bounds CreateName's collision-retry loop (spec.md §4.3).
const maxTokenRetries = 64

// CreateName draws a fresh non-zero token not currently present in either
// direction of the assist index, and records all four rows for name
// (spec.md §4.3). prevToken is the token the upstream neighbour gave this
// forwarder for name (0 if absent).
func (p *Pit) CreateName(name enc.Name, prevToken uint32) (uint32, error) {
	key := name.String()

	var tok uint32
	ok := false
	for attempt := 0; attempt < maxTokenRetries; attempt++ {
		cand := p.rand.next()
		if cand == 0 {
			continue
		}
		if _, clash := p.tokenToName[cand]; clash {
			continue
		}
		if _, clash := p.prevTokenToName[cand]; clash {
			continue
		}
		tok = cand
		ok = true
		break
	}
	if !ok {
		return 0, core.ErrTokenExhausted
	}

	p.nameToToken[key] = tok
	p.tokenToName[tok] = key
	p.nameToPrevToken[key] = prevToken
	if prevToken != 0 {
		p.prevTokenToName[prevToken] = key
	}
	p.nameByKey[key] = name.Clone()
	return tok, nil
}

// NameToToken returns the downstream token this forwarder generated for
// name.
func (p *Pit) NameToToken(name enc.Name) (uint32, bool) {
	t, ok := p.nameToToken[name.String()]
	return t, ok
}

// TokenToName reverses NameToToken.
func (p *Pit) TokenToName(tok uint32) (enc.Name, bool) {
	key, ok := p.tokenToName[tok]
	if !ok {
		return nil, false
	}
	return p.nameByKey[key], true
}

// NameToPrevToken returns the token the upstream neighbour gave this
// forwarder for name.
func (p *Pit) NameToPrevToken(name enc.Name) (uint32, bool) {
	t, ok := p.nameToPrevToken[name.String()]
	return t, ok
}

// PrevTokenToName reverses NameToPrevToken.
func (p *Pit) PrevTokenToName(tok uint32) (enc.Name, bool) {
	key, ok := p.prevTokenToName[tok]
	if !ok {
		return nil, false
	}
	return p.nameByKey[key], true
}

// eraseAssist drops all four rows for name, run as part of Pit.Erase so the
// row's lifetime matches its owning PIT entry exactly (spec.md §8 invariant 3).
func (p *Pit) eraseAssist(name enc.Name) {
	key := name.String()
	if tok, ok := p.nameToToken[key]; ok {
		delete(p.tokenToName, tok)
		delete(p.nameToToken, key)
	}
	if tok, ok := p.nameToPrevToken[key]; ok {
		if tok != 0 {
			delete(p.prevTokenToName, tok)
		}
		delete(p.nameToPrevToken, key)
	}
	delete(p.nameByKey, key)
}
