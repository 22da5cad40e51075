// Package auth verifies bearer tokens and carries the authenticated owner
// through request contexts.
package auth

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/kidsgram/internal/common"
)

// Verifier resolves a bearer token to an owner id.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Chain tries each verifier in order. An expired token wins over other
// failures so clients know to refresh.
type Chain []Verifier

func (c Chain) Verify(ctx context.Context, token string) (string, error) {
	err := common.ErrInvalidToken
	for _, v := range c {
		owner, verr := v.Verify(ctx, token)
		if verr == nil {
			return owner, nil
		}
		if !errors.Is(err, common.ErrTokenExpired) {
			err = verr
		}
	}
	return "", err
}

type ctxKey string

const ownerIDKey ctxKey = "ownerID"

func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// OwnerFrom returns the owner stored by WithOwner.
func OwnerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok && id != ""
}
