// Package notepad is the Composition Root for the notepad application.
//
// It connects the note domain (pkg/core, pkg/query) with the storage adapters
// (pkg/adapters/fs, pkg/adapters/memory) using the Hexagonal Architecture pattern.
//
// The store keeps every note as one set-valued collection under a single
// namespaced key. Each note is a text stamped with the time of its last save,
// identified by its "<text>|<timestamp>" encoding. Mutations are single
// read-modify-write commits; observers receive the whole collection after each
// one, and the query service turns that stream into search results.
//
// Features:
//
//   - **Set Semantics**: saving an existing note is a no-op, deleting a missing one too.
//   - **Atomic Commits**: a process mutex plus a lock file serialize writers; files are replaced atomically.
//   - **Reactive**: Observe and FilteredNotes push fresh results after every mutation,
//     including ones made by another process on the same directory.
//   - **Stable Handles**: every note carries a UUID that survives edits.
//
// Usage:
//
//	svc, err := notepad.New("./notes", notepad.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//
//	rec, err := svc.SaveText(ctx, "Buy milk")
//
//	results, err := notepad.NewQuery(svc).FilteredNotes(ctx, "milk")
//	for notes := range results {
//		fmt.Println(notes)
//	}
package notepad
