// =============================================================================
// ASYCUDA XML Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   asycuda convert       - Convert all workbooks in the input directory
//   asycuda inspect FILE  - Show the records read from one workbook
//   asycuda serve         - Accept uploads over HTTP
//   asycuda version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Readers, document builder, batch driver, server
//   - pkg/utils/     : Input discovery, archive and conversion log writers
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ASYCUDA-XML-conversion/cmd"
)

func main() {
	cmd.Execute()
}
