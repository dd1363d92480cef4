/*
Package session hosts many named engines for servers.

Engines live in memory. Every call serializes on a per-session lock (optionally combined with a
distributed lock), and each session's layout and algorithm are checkpointed to a TemplateStore so
another replica, or this one after a restart, can restore the session on first use. A restored
session starts idle: passes in flight are not persisted.
*/
package session
