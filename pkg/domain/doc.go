/*
Package domain contains the grid model shared by the stepgrid engine and its adapters.

It defines the fundamental entities of a search pass, such as Cells, the Grid, the
engine Status and the template encoding. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Cell: one square of the grid, with a state tag, a weight and a visited flag.
  - Grid: the fixed-size C×R array of cells with its unique START and END.
  - Status: where a search pass is in its lifecycle (idle, running, goal found, ...).
  - Snapshot: a read-only copy of the grid tags and the frontier, for renderers.
  - Template: the line-oriented text encoding used to load and save grids.
*/
package domain
