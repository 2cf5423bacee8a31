// Package auth stores the OAuth1 secrets used to sign API requests.
//
// A Manager tries the system keychain first, then an AES-GCM encrypted
// file, then TWHYDRATE_* environment variables. Credentials are grouped
// under named profiles so several apps can be kept side by side.
package auth
