///////////////////////////////////////////////////////////////////////////////
// Copyright © 2020 xx network SEZC                                          //
//                                                                           //
// Use of this source code is governed by a license that can be found in the //
// LICENSE file                                                              //
///////////////////////////////////////////////////////////////////////////////

package comms

// auth.go signs requests and recovers the sender of signed requests

import (
	"io"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/crypto/hash"
	"gitlab.com/elixxir/privaterecord/messages"
	"gitlab.com/xx_network/crypto/signature/rsa"
	"gitlab.com/xx_network/crypto/xx"
	"gitlab.com/xx_network/primitives/id"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Auth describes who sent a request. Sender is only set when the request
// was signed by the key its ID derives from.
type Auth struct {
	IsAuthenticated bool
	Sender          *id.ID
}

// AuthError is returned to senders that fail a handler's auth check
func AuthError(sender *id.ID) error {
	return status.Errorf(codes.Unauthenticated,
		"Failed to authenticate sender %s", sender)
}

// SignRequest wraps body in an envelope signed for the method
func SignRequest(rng io.Reader, key *rsa.PrivateKey, salt []byte,
	method string, body []byte) (*messages.Signed, error) {
	digest, err := requestDigest(method, salt, body)
	if err != nil {
		return nil, err
	}
	sig, err := rsa.Sign(rng, key, hash.CMixHash, digest, nil)
	if err != nil {
		return nil, errors.WithMessage(err, "Failed to sign request")
	}
	return &messages.Signed{
		Body:      body,
		Salt:      salt,
		PublicKey: rsa.CreatePublicKeyPem(key.GetPublic()),
		Signature: sig,
	}, nil
}

// Authenticate checks the envelope's signature and derives the sender. An
// unsigned or badly signed envelope yields an unauthenticated Auth.
func Authenticate(method string, env *messages.Signed) *Auth {
	if len(env.Signature) == 0 {
		return &Auth{}
	}

	pub, err := rsa.LoadPublicKeyFromPem(env.PublicKey)
	if err != nil {
		jww.DEBUG.Printf("%s: could not load sender key: %+v", method, err)
		return &Auth{}
	}
	digest, err := requestDigest(method, env.Salt, env.Body)
	if err != nil {
		jww.DEBUG.Printf("%s: %+v", method, err)
		return &Auth{}
	}
	if err = rsa.Verify(pub, hash.CMixHash, digest, env.Signature, nil); err != nil {
		jww.DEBUG.Printf("%s: signature invalid: %+v", method, err)
		return &Auth{}
	}

	sender, err := xx.NewID(pub, env.Salt, id.User)
	if err != nil {
		jww.DEBUG.Printf("%s: could not derive sender: %+v", method, err)
		return &Auth{}
	}
	return &Auth{IsAuthenticated: true, Sender: sender}
}

func requestDigest(method string, salt, body []byte) ([]byte, error) {
	h, err := hash.NewCMixHash()
	if err != nil {
		return nil, errors.WithMessage(err, "Could not get hash")
	}
	h.Write([]byte(method))
	h.Write(salt)
	h.Write(body)
	return h.Sum(nil), nil
}
