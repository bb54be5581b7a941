package subdiv

import (
	"io"
	"log"
	"os"
)

var subdivLogger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("LODMESH_DEBUG_SUBDIV") == "1" {
		subdivLogger = log.New(os.Stdout, "[subdiv] ", log.Ltime|log.Lmsgprefix)
	}
}
