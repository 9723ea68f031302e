package main

import (
	"github.com/lehigh-university-libraries/bulkimport/cmd"

	// Register reader plugins
	_ "github.com/lehigh-university-libraries/bulkimport/reader/csv"
)

func main() {
	cmd.Execute()
}
