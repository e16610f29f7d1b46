package domain_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akimon658/twittra/internal/domain"
)

func TestTokenRedaction(t *testing.T) {
	tok := domain.Token{UserID: domain.NewID(), AccessToken: "super-secret"}

	for _, rendered := range []string{
		tok.String(),
		fmt.Sprintf("%v", tok),
		fmt.Sprintf("%+v", tok),
		fmt.Sprintf("%#v", tok),
	} {
		assert.NotContains(t, rendered, "super-secret")
		assert.Contains(t, rendered, "REDACTED")
	}
}

func TestTokenRecordRedaction(t *testing.T) {
	rec := domain.TokenRecord{UserID: domain.NewID(), AccessToken: "another-secret"}
	rendered := fmt.Sprintf("%v", rec.String())
	assert.NotContains(t, rendered, "another-secret")
}
