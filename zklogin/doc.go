// Package zklogin holds the pure cryptographic pieces of the zkLogin scheme: ephemeral keys,
// nonce derivation bound to a max epoch, salts and the identity-token-to-address mapping.
//
// Nothing in this package performs I/O. Identity tokens are decoded but never verified here;
// signature verification belongs to the proving service and the backend.
package zklogin
