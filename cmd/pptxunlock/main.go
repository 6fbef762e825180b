// Command pptxunlock removes the modify password from PowerPoint files.
package main

import "github.com/logicossoftware/go-pptxunlock/internal/cli"

func main() {
	cli.Execute()
}
