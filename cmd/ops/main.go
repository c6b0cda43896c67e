// Command ops: pekerjaan operasional keuangan yang biasanya dijalankan cron,
// bisa dipanggil manual (mis. setelah insiden atau untuk backfill tagihan).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "ops",
	Short:         "Tahfidzku finance operations",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
