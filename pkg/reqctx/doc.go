// Package reqctx carries request-scoped data through context.Context.
//
// HTTP middleware stores RequestMeta for every request and the
// authentication claims for authenticated ones. Services read the acting
// user with ActorFromContext; loggers read the request and trace ids.
//
// Context keys are unexported, so values can only be set through this
// package.
package reqctx
