/*
Package ports defines the driven and driving ports (interfaces) of the stepgrid engine.

These interfaces decouple the search core from external implementations, allowing
grid templates to live in memory, on disk, in Redis or in a Loam library, and
letting transports (HTTP, MCP) drive sessions without knowing how they are hosted.

# Key Interfaces

  - TemplateLoader: Read-only access to named grid templates (e.g., a Loam library).
  - TemplateStore: Read-write persistence of templates and session checkpoints.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - SessionService: Drives the engines hosted for remote callers.
*/
package ports
