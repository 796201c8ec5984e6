package aiusage

import "context"

type callerKey struct{}

// WithCaller attaches the authenticated uid so usage can be attributed.
func WithCaller(ctx context.Context, uid string) context.Context {
	if uid == "" {
		return ctx
	}
	return context.WithValue(ctx, callerKey{}, uid)
}

// CallerFrom returns the uid set by WithCaller, or "" for anonymous calls.
func CallerFrom(ctx context.Context) string {
	uid, _ := ctx.Value(callerKey{}).(string)
	return uid
}
