// =============================================================================
// recordmove - Main Entry Point
// =============================================================================
//
// recordmove relocates a single record from the day trips dataset to the
// special events dataset, adjusting its id prefix and type label, and leaves
// .bak copies of both files behind.
//
// USAGE:
//   recordmove             - Back up, move the record and rewrite both files
//   recordmove restore     - Copy the .bak files back over the datasets
//   recordmove version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : Cobra command definitions
//   - internal/      : Datasets, the move transform and the migration pipeline
//   - pkg/utils      : Backup, restore and staged file writes
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/recordmove/cmd"
)

func main() {
	cmd.Execute()
}
