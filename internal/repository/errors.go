package repository

import "errors"

// Sentinel errors surfaced by repositories for services to translate into
// the domain taxonomy.
var (
	// ErrNoRowsAffected reports an update that matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
	// ErrAlreadyLinked reports a person record that already carries an account.
	ErrAlreadyLinked = errors.New("person already linked to an account")
)
