// Package editor holds the client-side editing state for merge segments and
// watermark regions. Every mutation is acknowledged by the server before the
// local state changes; there are no optimistic updates to roll back.
package editor
