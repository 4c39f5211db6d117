// Package journal records failed fetches.
//
// The Extension returned by NewExtension implements fetchDidFail and appends
// one Entry per failed attempt to a Store. InMemoryStore is the bundled
// volatile implementation; add other backends by implementing Store.
package journal
