// Package authprogram implements the credential and session flow used by
// the task api.
//
// Passwords are never stored, only a salted scrypt key kept as
// "salt_hex:key_hex". Comparing keys always goes through
// crypto/subtle, and the key derivation runs on a bounded worker path
// so a burst of logons cannot starve the rest of the server.
//
// Sessions are stateless: after register or logon the client receives an
// HS256 signed JWT (kept in an HttpOnly cookie) carrying the user id, an
// anti-forgery value and an expiry. The same anti-forgery value is sent
// in the response body and must be echoed back in the X-CSRF-TOKEN header
// on every state-changing request. A cross-site attacker can make the
// browser send the cookie but cannot read the response body, so it never
// learns the value it should put in the header.
//
// Logoff overwrites the cookie with an already expired token. The token
// id is also kept in an in-memory revocation list until the original
// token would have expired, which closes the window for a copied cookie
// on this instance. Other instances still rely on the expiry alone.
package authprogram
