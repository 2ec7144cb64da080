package main

import (
	"log"
	_ "time/tzdata"

	"github.com/iprahasta12-beep/idx-list/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cli.Execute()
}
