/*
Package ports defines the driven ports (interfaces) of the arbor router.

These interfaces decouple navigation from external implementations, allowing
a router to persist its committed state in various backends and to coordinate
navigations across replicas.

# Key Interfaces

  - SnapshotStore: Responsible for persisting and loading the committed navigation Snapshot.
  - DistributedLocker: Provides distributed locking so only one replica navigates a router at a time.
*/
package ports
