package packet

import "golang.org/x/crypto/ed25519"

// Signer and Verifier are a deliberately minimal crypto primitive pair.
// Full signing/certificate validation is out of scope (spec.md §1). No
// forwarding pipeline calls them: neither the unsolicited-Data path nor CS
// admission (spec.md §4.5, §4.9) checks Data signatures. The teacher's
// PIB/TPM/validator-config machinery is not reproduced.
type Signer struct {
	priv ed25519.PrivateKey
}

// Verifier checks Ed25519 signatures produced by a Signer.
type Verifier struct {
	pub ed25519.PublicKey
}

// NewSigner generates a fresh Ed25519 keypair and returns a bound
// Signer/Verifier pair.
func NewSigner() (*Signer, *Verifier, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	return &Signer{priv: priv}, &Verifier{pub: pub}, nil
}

// Sign signs a Data packet's Name+Content, storing the signature on the
// packet.
func (s *Signer) Sign(d *Data) {
	d.Signature = ed25519.Sign(s.priv, signedPortion(d))
}

// Verify reports whether d's signature is valid under this Verifier's
// public key. A nil/empty signature is never valid.
func (v *Verifier) Verify(d *Data) bool {
	if len(d.Signature) == 0 {
		return false
	}
	return ed25519.Verify(v.pub, signedPortion(d), d.Signature)
}

func signedPortion(d *Data) []byte {
	out := append([]byte(nil), []byte(d.Name.String())...)
	out = append(out, d.Content...)
	return out
}
