package main

import (
	"context"
	"os"

	"github.com/e7canasta/orion-care-sensor/modules/csi-capture/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
