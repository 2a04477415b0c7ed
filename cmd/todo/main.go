// Command todo is the terminal client for the shared task store.
//
// Several clients (this CLI, the chat-bot process, browser board sessions)
// read and write the same database concurrently; mutations made here show
// up on the others through the store's change fan-out.
package main

func main() {
	Execute()
}
