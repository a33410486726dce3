/*
Package session implements conversation access and persistence orchestration.

It serializes turns of the same conversation with reference-counted in-process
locks and an optional distributed lock, and it applies a turn atomically: the
state is loaded, cloned, mutated by the caller and only saved when the caller
succeeds.
*/
package session
