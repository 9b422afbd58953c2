package actor

import (
	"bytes"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/DataDog/gostackparse"
)

// captureCleanStack captures the current goroutine's stack and trims it
// down to just the frames above this helper, kept from the teacher's
// process.go cleanTrace. Only handler-panic log lines carry it; stall
// log lines carry no stack trace.
func captureCleanStack() string {
	raw := debug.Stack()
	goros, err := gostackparse.Parse(bytes.NewReader(raw))
	if err != nil || len(goros) != 1 {
		if err != nil {
			slog.Error("parsing stack trace failed", "err", err)
		}
		return string(raw)
	}
	g := goros[0]
	if len(g.Stack) > 3 {
		g.Stack = g.Stack[3:]
	}
	buf := bytes.NewBuffer(nil)
	fmt.Fprintf(buf, "goroutine %d [%s]\n", g.ID, g.State)
	for _, frame := range g.Stack {
		fmt.Fprintf(buf, "%s\n\t%s:%d\n", frame.Func, frame.File, frame.Line)
	}
	return buf.String()
}
