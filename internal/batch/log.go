package batch

import (
	"io"
	"log"
	"os"
)

var batchLogger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("LODMESH_DEBUG_BATCH") == "1" {
		batchLogger = log.New(os.Stdout, "[batch] ", log.Ltime|log.Lmsgprefix)
	}
}
