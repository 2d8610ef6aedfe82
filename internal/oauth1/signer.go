package oauth1

import (
	"maps"
	"time"
)

// Credentials is a token and its secret. The zero value signs without a token.
type Credentials struct {
	Token  string
	Secret string
}

// Signer produces signed protocol parameters for a single consumer.
//
// Nonce and Now default to [NewNonce] and [time.Now]; tests replace them.
type Signer struct {
	ConsumerKey    string
	ConsumerSecret string

	Nonce func() (string, error)
	Now   func() time.Time
}

// NewSigner returns a Signer for the consumer key pair.
func NewSigner(consumerKey, consumerSecret string) *Signer {
	return &Signer{ConsumerKey: consumerKey, ConsumerSecret: consumerSecret, Nonce: NewNonce, Now: time.Now}
}

// Params returns the oauth_* parameters for one request: the protocol set plus extra
// (for example oauth_callback or oauth_verifier), signed over extra and query.
//
// Every call draws a new nonce and timestamp. Query parameters are signed but not
// included in the result, since they travel in the URL.
func (s *Signer) Params(method, baseURL string, query Params, cred Credentials, extra Params) (Params, error) {
	nonce := s.Nonce
	if nonce == nil {
		nonce = NewNonce
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}

	n, err := nonce()
	if err != nil {
		return nil, err
	}

	oauth := Params{
		ParamConsumerKey:     s.ConsumerKey,
		ParamNonce:           n,
		ParamTimestamp:       Timestamp(now()),
		ParamSignatureMethod: SignatureMethod,
	}
	if cred.Token != "" {
		oauth[ParamToken] = cred.Token
	}
	maps.Copy(oauth, extra)

	all := make(Params, len(oauth)+len(query))
	maps.Copy(all, query)
	maps.Copy(all, oauth)

	oauth[ParamSignature] = Sign(method, baseURL, all, s.ConsumerSecret, cred.Secret)
	return oauth, nil
}

// Header is [Signer.Params] rendered by [AuthorizationHeader].
func (s *Signer) Header(method, baseURL string, query Params, cred Credentials, extra Params) (string, error) {
	p, err := s.Params(method, baseURL, query, cred, extra)
	if err != nil {
		return "", err
	}
	return AuthorizationHeader(p), nil
}
