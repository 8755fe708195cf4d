// cmd/seobundles/main.go
//
// SEO bundle service entry point.
//
// Subcommands
// -----------
//
//	serve     run the content-change webhook and /metrics
//	install   build the Global bundle of every site and every content bundle
//	list      print stored content bundles
//	get       resolve one bundle, building it when missing
//
// Every subcommand shares one bootstrap (see app.go): config, logger,
// database pool, and the bundle collaborators.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
