// Package git reads the documentation subtree of a local plugin repository
// at a revision. The pack command turns it into a docs archive.
package git
