package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCodeChallenge(t *testing.T) {
	// Reference vector from RFC 7636 appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", ComputeCodeChallenge(verifier))
}

func TestVerifyCodeChallenge(t *testing.T) {
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	challenge := ComputeCodeChallenge(verifier)

	tests := []struct {
		name      string
		verifier  string
		challenge string
		method    string
		want      bool
	}{
		{"valid S256 pair", verifier, challenge, "S256", true},
		{"wrong verifier", "another-verifier-another-verifier-another-v", challenge, "S256", false},
		{"plain method rejected", challenge, challenge, "plain", false},
		{"empty method rejected", verifier, challenge, "", false},
		{"empty verifier", "", challenge, "S256", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyCodeChallenge(tt.verifier, tt.challenge, tt.method))
		})
	}
}
