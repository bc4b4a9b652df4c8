/*
Package domain contains the core models of the arbor router and binding engine.

It defines component definitions with their static route metadata, the lifecycle
hook contracts consumed from component instances, the routing policies (routing
mode, deferral juncture, swap strategy), the navigation state machine and the
error taxonomy. The package is kept free of I/O and scheduling concerns.

# Key Entities

  - Definition: a routable component (route metadata, dependencies, factory).
  - NavigationInstruction: the resolved target of one level of a navigation.
  - ViewportState: which component occupies a named slot.
  - Snapshot: the committed result of the latest navigation, used for persistence.
  - RouteMatchError, HookRejection, InvariantViolation: the error taxonomy.
*/
package domain
