package main

import (
	"github.com/onflow/vm-runtime/cmd/vm/cmd"
)

func main() {
	cmd.Execute()
}
