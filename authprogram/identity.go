package authprogram

import "context"

type (
	// Identity is the verified caller of a request. It only lives in the
	// request context.
	Identity struct {
		ID int64
	}

	identityKey struct{}
)

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
