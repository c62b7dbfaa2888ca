package engine

import (
	"bytes"
	"fmt"
	"strings"
)

// CommandLog renders the command log for every attempted cycle.
//
// Format:
//
//	# scenario=<id> mode=<mode> fixture=<fixture> seed=<seed>
//	# target_cycle_count=<n> realized_cycle_count=<k> status=<status>
//
//	## cycle <i>/<n> exit=<code> [timed_out]
//	$ <command>
//	[stdout]
//	...
//	[stderr]
//	...
//
// Timestamps are omitted so the log of a passing scenario is stable across
// passes apart from the binary's own output.
func (x *Execution) CommandLog() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# scenario=%s mode=%s fixture=%s seed=%d\n",
		x.Spec.ScenarioID, x.Spec.Mode, x.Spec.FixtureID, x.Seed)
	fmt.Fprintf(&b, "# target_cycle_count=%d realized_cycle_count=%d status=%s",
		x.TargetCycles, x.RealizedCycles, x.Status)
	if x.Reason != "" {
		fmt.Fprintf(&b, " reason_code=%s", x.Reason)
	}
	b.WriteString("\n")

	for _, c := range x.Cycles {
		fmt.Fprintf(&b, "\n## cycle %d/%d exit=%d", c.Index, x.TargetCycles, c.Result.ExitCode)
		if c.Result.TimedOut {
			b.WriteString(" timed_out")
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "$ %s\n", DisplayCommand(c.Result.Argv))
		if c.Result.Err != nil {
			fmt.Fprintf(&b, "[error] %v\n", c.Result.Err)
		}
		writeStream(&b, "stdout", c.Result.Stdout)
		writeStream(&b, "stderr", c.Result.Stderr)
	}
	return b.Bytes()
}

func writeStream(b *bytes.Buffer, name, content string) {
	fmt.Fprintf(b, "[%s]\n", name)
	if content == "" {
		return
	}
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
}
