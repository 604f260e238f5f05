// Command nimbus is a terminal and HTTP chat front-end for Gemini models.
package main

import "github.com/diogo/nimbus/internal/commands"

func main() {
	commands.Execute()
}
