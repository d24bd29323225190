// Command genie plays piano notes from hand gestures seen by a webcam.
package main

func main() {
	Execute()
}
