// Package extension implements the extension registry for fetchmesh.
//
// Extensions are caller supplied objects that opt in to lifecycle hooks by
// implementing the capability interfaces declared in package core:
//
//   - [core.RequestWillFetcher]: observe or rewrite the outgoing request
//   - [core.FetchDidSucceeder]: observe or rewrite the response
//   - [core.FetchDidFailer]: react to a failed attempt
//
// # Implementing an Extension
//
//	type AuthExtension struct{ token string }
//
//	func (e *AuthExtension) Name() string { return "auth" }
//
//	func (e *AuthExtension) RequestWillFetch(ctx context.Context, p core.RequestWillFetchParams) (*http.Request, error) {
//	    p.Request.Header.Set("Authorization", "Bearer "+e.token)
//	    return p.Request, nil
//	}
//
// Registration order is dispatch order. [SelectImplementing] filters an
// ordered extension list down to the extensions exposing a hook, and
// [Registry] keeps an ordered, concurrency-safe collection. [Funcs] turns a
// set of plain functions into an extension advertising only the hooks that
// are set.
package extension
