/*
Package domain contains the core models of dispatch.

It defines what can be intercepted and what handlers receive. This package is
kept pure and free of I/O, logging and persistence.

# Key Entities

  - Class: A named type holding the operation slots and methods of its instances.
  - Object: An instance whose field access and invocation route through the class slots.
  - Function: A single named operation.
  - EventKind and Behavior: The bitsets selecting what is observed and how it composes.
  - Event: The immutable payload handed to every Handler.
*/
package domain
