package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// CodeChallengeMethodS256 is the only supported PKCE challenge method
const CodeChallengeMethodS256 = "S256"

// ComputeCodeChallenge derives the S256 challenge for a code verifier
func ComputeCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// VerifyCodeChallenge checks a client supplied verifier against the
// challenge stored at authorization time. Only S256 is accepted; the
// comparison is constant time.
func VerifyCodeChallenge(verifier, challenge, method string) bool {
	if method != CodeChallengeMethodS256 {
		return false
	}
	computed := ComputeCodeChallenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
