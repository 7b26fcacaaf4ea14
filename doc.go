// Package authcore implements an identity and credential authority: it
// issues, validates, and revokes session tokens, manages local (password)
// and federated (linked remote identity) accounts, enforces role based
// authorization, and mediates linking of external identities to accounts.
//
// Highlights:
//
//   - Auth is the engine. It holds no in-process mutable state; all
//     exclusivity (user name uniqueness, one account per remote identity,
//     one token per hash) is delegated to the Storage contract's atomic
//     conditional inserts, so concurrent callers are safe as long as the
//     storage implementation honors the contract.
//   - Tokens are opaque bearer secrets. Only the SHA-256 hash of a secret
//     is ever stored; the raw value is returned exactly once at issuance.
//   - Disabling an account revokes its tokens both at disable time and
//     lazily on the next token use, so tokens issued in between cannot
//     survive.
//   - The temporary token handshake bridges a federated provider callback
//     to the caller: it transiently holds either candidate identities or a
//     one-shot handshake error, and must be deleted by the consumer.
//
// The repository subpackage provides the reference Storage implementation
// on Bun + SQLite.
package authcore
