// Package jwt issues and verifies HS512 signed tokens that carry a purpose
// claim ("typ"). A token minted for one purpose never verifies for another,
// which keeps a second-factor token key from being replayed as a session.
package jwt
