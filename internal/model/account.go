// Package model defines the data structures used throughout the application.
package model

import "time"

// Account is a registered marketplace user.
//
// Nickname and Mail are each globally unique (UNIQUE constraints in the DB).
// PasswordHash holds the bcrypt output, never the plaintext, and the `json:"-"`
// tag keeps it out of every API response.
type Account struct {
	ID           string    `json:"id"        db:"id"`
	Nickname     string    `json:"nickname"  db:"nickname"`
	Mail         string    `json:"mail"      db:"mail"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Profile is an account together with the products it posted and bought.
type Profile struct {
	Account *Account
	Posted  []Product
	Bought  []Product
}
