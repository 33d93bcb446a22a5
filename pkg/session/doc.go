/*
Package session orchestrates access to per-session negotiation state.

A Manager serializes all reads and writes per session ID, locally through
reference-counted mutexes and, when configured with a distributed locker,
across replicas as well. Distinct sessions never contend with each other.
*/
package session
