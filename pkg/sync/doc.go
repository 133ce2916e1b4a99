/*
The sync package implements GISBox's synchronization engine between a
remote content portal and a local directory tree.

There are two independent modes:

1) Sync-down (Mirrorer) -- a one-shot backup. The local mirror root is
   wiped and rebuilt from scratch: items in the portal's root folder
   become files directly under the mirror root, and each portal folder
   becomes a subdirectory holding its items. Running it twice against
   unchanged remote state produces an identical tree.

2) Sync-up (Monitor + Reconciler) -- a continuous watch. Filesystem
   events under the mirror root are dispatched one at a time to the
   reconciler, which maps them to portal create, update, and delete
   calls.

There is no persisted correlation table between the two namespaces. The
mapping is purely name-based: an item's title is the filename stem, and
its folder is the first path segment under the mirror root. The two
directions share the same path mapping functions so that a file written
by the mirror round-trips to the folder it came from.

The engine never resolves conflicts between concurrent local and remote
edits, and items whose declared type isn't supported are invisible to
both directions.
*/
package sync
