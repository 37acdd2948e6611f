package main

import "github.com/frahmantamala/document-repository/cmd"

func main() {
	cmd.Execute()
}
