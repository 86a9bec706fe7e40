// Package main provides shmctl, a command-line front end over pkg/shm.
package main

import (
	"os"

	"github.com/eclipse-score/corelibs-go/internal/shmcli"
)

func main() {
	os.Exit(shmcli.Run(os.Stdout, os.Stderr, os.Args[1:]))
}
