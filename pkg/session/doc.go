/*
Package session multiplexes routers over session IDs.

Each session (a browser tab, a user, a terminal) gets its own router, created
on first use and restored from the snapshot store. Operations on one session
are serialized with a reference-counted local lock and, when configured, a
distributed lock so that replicas sharing a store never navigate the same
session concurrently.
*/
package session
