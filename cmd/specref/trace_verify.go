package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/specref/pkg/kernel/trace"
)

var traceVerifyCmd = &cobra.Command{
	Use:   "verify [trace.jsonl]",
	Short: "Verify a resolution trace and summarize what the pass resolved",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceVerify,
}

func runTraceVerify(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	res, err := trace.VerifyFile(args[0])
	if err != nil {
		return err
	}
	if !res.Valid {
		fmt.Fprintf(out, "✗ %s: hash chain broken at event %d\n", args[0], res.BrokenAt)
		if res.Error != "" {
			fmt.Fprintf(out, "  %s\n", res.Error)
		}
		return fmt.Errorf("trace %s failed verification", args[0])
	}

	fmt.Fprintf(out, "✓ %s: %d events, hash chain intact\n", args[0], res.EventCount)
	if res.Status != "" {
		fmt.Fprintf(out, "  pass:        %s, %d diagnostic(s)\n", res.Status, res.Diagnostics)
	}
	writeResolutionCounts(out, res.Events)

	switch {
	case !res.Signed:
		fmt.Fprintln(out, "  signature:   none")
	case res.SignatureOK:
		fmt.Fprintf(out, "  signature:   valid (key %s)\n", res.SigningKeyID)
	case res.SignatureNoKey:
		fmt.Fprintf(out, "  signature:   present (key %s), set %s to check it\n", res.SigningKeyID, trace.SigningKeyEnv)
	default:
		fmt.Fprintln(out, "✗ signature does not match the chain hash")
		return fmt.Errorf("trace %s signature invalid", args[0])
	}
	return nil
}

func writeResolutionCounts(w io.Writer, events map[trace.EventType]int) {
	fmt.Fprintf(w, "  resolutions: %d refined, %d cache hit(s), %d passthrough(s)\n",
		events[trace.EventRefined], events[trace.EventCacheHit], events[trace.EventPassthrough])
	problems := events[trace.EventKindViolation] + events[trace.EventConstraintError] + events[trace.EventCycleDetected]
	if problems > 0 {
		fmt.Fprintf(w, "  problems:    %d kind violation(s), %d constraint error(s), %d cycle(s)\n",
			events[trace.EventKindViolation], events[trace.EventConstraintError], events[trace.EventCycleDetected])
	}
}

func init() {
	traceCmd := &cobra.Command{
		Use:   "trace",
		Short: "Resolution trace operations",
	}
	traceCmd.AddCommand(traceVerifyCmd)
	rootCmd.AddCommand(traceCmd)
}
