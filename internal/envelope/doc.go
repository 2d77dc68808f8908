// Package envelope implements lockbox's key envelope lifecycle.
//
// Every uploaded file gets a fresh 32-byte file key. The contents are
// encrypted with a prefix of that key (see package ciphers) and the full key
// is wrapped under the owner's RSA public key into the owner envelope.
// Granting access unlocks the owner's private key with their passphrase,
// unwraps the owner envelope and re-wraps the same key for the recipient
// as a shared envelope. Revoking deletes the shared envelope.
//
//	(no key) --Upload--> owned --Grant--> owned + shared --Revoke--> owned
//
// Raw file keys and decrypted private keys only exist inside a single call
// and are wiped before it returns, including on error paths. Each Upload and
// Grant performs exactly one store write, after every fallible step has
// succeeded and only if the context is still live.
//
// Access policy (who may grant, who is a known user) is not decided here;
// callers check it before invoking the Manager.
package envelope
