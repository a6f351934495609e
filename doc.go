/*
Package tablesync keeps a list or grid view in step with the data it shows.

A data source (in-memory, or a query against a small Bolt-backed store)
reports what changed as a stream of fine-grained changes; an Updater turns
that stream into batches a view can apply atomically.

We implement:

1. Change, a tagged value describing one row or section mutation.

2. Compare, a total order over changes used for deterministic processing.

3. Adjust, which maps a pre-batch position into the coordinate space left
after a set of structural changes.

4. Correct, which splits a batch into structural changes and row updates
and re-targets the updates.

5. Updater, which collects changes between BeginUpdates and EndUpdates and
submits the structural changes and the corrected updates to a Sink as two
separate batches.

6. Data sources: MemorySource and Results (query over a DB), both reporting
their differences to an Updatable.

# Technical Details

**Coordinates.**
Raw change streams follow fetched-results conventions: deletions, move
sources and updates are expressed in pre-batch coordinates; insertions and
move destinations in post-batch coordinates. A view applies row updates by
position, so updates are re-targeted into post-batch coordinates before they
are submitted.

**Ordering.**
Section deletions < section insertions < moves < row deletions < row
insertions < updates. Ties are broken by position (section, then row; for
moves, source then destination).

**Two batches.**
Row reloads must not be mixed with structural mutations in one view
transaction, so structural changes are submitted first and updates in a
second batch. Empty batches are never submitted.

**Threading.**
Updater, MemorySource and Results are meant to be used from the goroutine
that owns the view. DB and Notifier are safe for concurrent use, but DB
delivers change notifications on the committing goroutine.

## Storage

Rows are msgpack-encoded structs stored in one Bolt bucket per table, keyed
by string. Content changes are detected by comparing xxhash fingerprints of
the encoded rows.
*/
package tablesync
