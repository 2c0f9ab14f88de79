package cookiestore

import (
	"context"

	"github.com/google/uuid"
)

// Owner identifies the party whose cookies a jar holds.
type Owner string

// NewOwner mints a random Owner.
func NewOwner() Owner {
	return Owner(uuid.NewString())
}

type ctxKey int

const ownerKey ctxKey = iota + 1

// WithOwner returns a copy of ctx carrying owner.
func WithOwner(ctx context.Context, owner Owner) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// OwnerFrom retrieves the Owner stored in ctx, if any.
func OwnerFrom(ctx context.Context) (Owner, bool) {
	owner, ok := ctx.Value(ownerKey).(Owner)
	if !ok || owner == "" {
		return "", false
	}

	return owner, true
}
