package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/cdx/internal/shared"
)

// Protocol parameter names.
const (
	ParamConsumerKey     = "oauth_consumer_key"
	ParamToken           = "oauth_token"
	ParamTokenSecret     = "oauth_token_secret"
	ParamNonce           = "oauth_nonce"
	ParamTimestamp       = "oauth_timestamp"
	ParamSignatureMethod = "oauth_signature_method"
	ParamSignature       = "oauth_signature"
	ParamVersion         = "oauth_version"
	ParamCallback        = "oauth_callback"
	ParamVerifier        = "oauth_verifier"

	SignatureMethod = "HMAC-SHA1"
	Version         = "1.0"
)

// BaseString builds the signature base string METHOD&enc(baseURL)&enc(normalized params).
func BaseString(method, baseURL string, p Params) string {
	return strings.ToUpper(method) + "&" + Encode(baseURL) + "&" + Encode(NormalizeParams(p))
}

// SigningKey joins the encoded consumer and token secrets with '&'. tokenSecret may be empty.
func SigningKey(consumerSecret, tokenSecret string) string {
	return Encode(consumerSecret) + "&" + Encode(tokenSecret)
}

// Sign returns the base64 HMAC-SHA1 signature of the request.
func Sign(method, baseURL string, p Params, consumerSecret, tokenSecret string) string {
	mac := hmac.New(sha1.New, []byte(SigningKey(consumerSecret, tokenSecret)))
	mac.Write([]byte(BaseString(method, baseURL, p)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NewNonce returns 16 random bytes, hex encoded.
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: reading nonce: %v", shared.ErrSignature, err)
	}
	return hex.EncodeToString(b), nil
}

// Timestamp formats now as Unix seconds.
func Timestamp(now time.Time) string {
	return strconv.FormatInt(now.Unix(), 10)
}

// AuthorizationHeader renders the oauth_* entries of p as an OAuth Authorization header value.
func AuthorizationHeader(p Params) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if strings.HasPrefix(k, "oauth_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("OAuth ")
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Encode(k))
		sb.WriteString(`="`)
		sb.WriteString(Encode(p[k]))
		sb.WriteByte('"')
	}
	return sb.String()
}
