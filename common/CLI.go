package common

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// PressButtonToContinue prints message and blocks until a line is read from
// in, animating a small spinner on out meanwhile.
func PressButtonToContinue(in io.Reader, out io.Writer, continueMessage string) {
	fmt.Fprintln(out, continueMessage)
	fmt.Fprint(out, "\a")

	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		frames := []string{" ", " ", " ", "o", "O", "o", " ", " ", " "}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			fmt.Fprintf(out, "\r%s", strings.Join(frames, ""))
			select {
			case <-stop:
				fmt.Fprintf(out, "\r%s\r", strings.Repeat(" ", len(frames)))
				return
			case <-ticker.C:
				frames = append(frames[1:], frames[0])
			}
		}
	}()

	reader := bufio.NewReader(in)
	_, _ = reader.ReadString('\n')

	close(stop)
	<-done
}
