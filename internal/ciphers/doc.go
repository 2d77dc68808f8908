// Package ciphers is the symmetric cipher suite used to encrypt file contents.
//
// Three interchangeable algorithms are supported, each with a fixed key length:
//
//	AES  AES-256-CBC, 32-byte key, random 16-byte IV, PKCS#7 padding
//	DES  DES-CBC,      8-byte key, random 8-byte IV,  PKCS#7 padding
//	RC4  RC4 stream,  16-byte key, no IV
//
// The DES variant is tolerant about its key: longer keys are truncated and
// shorter keys are zero-padded. AES and RC4 reject keys of the wrong length
// with errors.ErrInvalidKey.
//
// Every Encrypt and Decrypt call reports how long the primitive took. The
// duration is for instrumentation only.
//
// None of these modes are authenticated. A wrong key on a CBC cipher usually
// surfaces as a padding error; on RC4 it silently yields garbage.
package ciphers
