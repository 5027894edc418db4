package stabletoken

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/common"
	"github.com/gaze-network/token-sale/common/errs"
)

// Registry holds the payment assets known to the service, keyed by address.
type Registry struct {
	tokens map[common.Address]*Token
}

func NewRegistry() *Registry {
	return &Registry{tokens: make(map[common.Address]*Token)}
}

func (r *Registry) Register(token *Token) error {
	if _, ok := r.tokens[token.Address()]; ok {
		return errors.Wrapf(errs.ConflictSetting, "payment asset %s already registered", token.Address())
	}
	r.tokens[token.Address()] = token
	return nil
}

func (r *Registry) Get(address common.Address) (*Token, bool) {
	token, ok := r.tokens[address]
	return token, ok
}

// Tokens returns every registered token in address order.
func (r *Registry) Tokens() []*Token {
	tokens := make([]*Token, 0, len(r.tokens))
	for _, token := range r.tokens {
		tokens = append(tokens, token)
	}
	slices.SortFunc(tokens, func(a, b *Token) int { return a.Address().Compare(b.Address()) })
	return tokens
}
