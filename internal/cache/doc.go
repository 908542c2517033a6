// Package cache implements the file-backed cache engine and its in-memory
// twin. Entries carry their absolute expiry inside the stored payload
// (10 ASCII digits followed by the raw value), keys fan out on disk through a
// SHA-1 derived aa/bb/<fullhash> layout with an optional tags/<tagshash>
// namespace, and expiry is checked lazily on access rather than swept in the
// background. Add is the only strictly serialized write path: it takes an
// exclusive flock on the target file so that concurrent processes racing on
// an absent or expired key elect exactly one winner.
package cache
