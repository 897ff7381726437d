// Command nritya drives a slideshow with hand gestures captured from a
// webcam.
package main

import (
	"github.com/ayusman/nritya/internal/recovery"
)

func main() {
	defer recovery.HandlePanic()
	Execute()
}
