package main

import (
	"ocm.software/open-component-model/bindings/go/modeljson/cmd/modeljson/cmd"
)

func main() {
	cmd.Execute()
}
