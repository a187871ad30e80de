package main

import (
	"log"
	"os"

	"github.com/nownpp/data-hub-entry/internal/client/cli"
)

func main() {

	app := cli.NewApp(os.Stdout, os.Stdin, nil)

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("%v", err)
	}

}
