package main

import (
	"github.com/gltp/captrack/internal/cmd"
)

func main() {
	cmd.Execute()
}
