package main

import (
	"errors"
	"os"

	"github.com/yoanbernabeu/wrtprobe/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		// 1 means the device failed a check, 2 means the run itself could not happen
		if errors.Is(err, cmd.ErrChecksFailed) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}
