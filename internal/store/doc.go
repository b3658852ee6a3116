// Package store manages airmatch persistence backed by SQLite.
//
// The matching core owns the identity bridge, artist alias, proposed
// split, discovery queue, link audit, discovery run, and settings tables.
// The catalog (artists, works, recordings) and broadcast log tables are
// populated by external collaborators but live in the same database so
// per-signature linking can be transactional.
//
// Identity bridges are append-only with a soft revocation state; nothing
// here exposes bridge deletion.
package store
