package main

import "github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/cmd/dialogctl/cmd"

func main() {
	cmd.Execute()
}
