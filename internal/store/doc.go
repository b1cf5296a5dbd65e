// Package store is the file-backed memory store.
//
// Memory files are the source of truth. Each category directory also holds
// an index.yaml listing its direct memories and subcategories; indexes are
// derived views that can always be rebuilt with [FileStore.Reindex].
//
// Consistency model: every mutation made through the service layer patches
// the affected index files right away via the [Maintainer]. The adapter's
// own Remove and Move never touch indexes. Reindex is the repair and
// bootstrap tool; running it twice on an unchanged tree is a no-op.
//
// Concurrency: one writer per store root. There is no locking and no
// coordination between processes, so two processes mutating the same root
// can race on an index file and lose an update. Reindex repairs that, as long
// as nothing writes to the store while it runs. Record and index writes use
// temp file + rename, so a killed process leaves either the old or the new
// file. Contexts are used for logging only; operations are not cancellable.
package store
