package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/xshape/signature"
)

func runKey(cmd *cobra.Command, args []string) error {
	fields, err := loadShape(shapePath)
	if err != nil {
		return err
	}
	sig, err := signature.Fields(fields)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, sig.Key())
	if verbose {
		fmt.Fprintf(out, "fingerprint: %016x\n", sig.Fingerprint())
	}
	return nil
}
