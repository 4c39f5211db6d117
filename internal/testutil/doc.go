// Package testutil contains helper builders and utilities used across tests
// to reduce boilerplate when constructing requests, responses and fake
// transmitters. They are not intended for production usage.
package testutil
