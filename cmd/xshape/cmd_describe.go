package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/xshape/reflection"
)

func runDescribe(cmd *cobra.Command, args []string) error {
	fields, err := loadShape(shapePath)
	if err != nil {
		return err
	}
	desc, err := rt.GetStructuralType(fields)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "key:         %s\n", desc.Key)
	fmt.Fprintf(out, "fingerprint: %016x\n", desc.Signature().Fingerprint())
	fmt.Fprintf(out, "id:          %s\n", desc.ID)
	fmt.Fprintf(out, "size:        %d bytes\n", desc.Type.Size())
	fmt.Fprintln(out, "fields:")

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i := 0; i < desc.Type.NumField(); i++ {
		f := desc.Type.Field(i)
		fmt.Fprintf(w, "  %s\t%s\t%d\t%s\n", f.Name, reflection.FullName(f.Type), f.Offset, f.Tag)
	}
	return w.Flush()
}
