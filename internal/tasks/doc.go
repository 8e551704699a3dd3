// Package tasks defines the client-side view of MediaCraft processing jobs:
// the server-owned Task snapshot, its status lifecycle, and the client-local
// entities (upload items, segments, regions) edited during the wizard flow.
package tasks
