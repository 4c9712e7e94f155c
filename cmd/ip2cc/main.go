// Command ip2cc prints the ISO2 country code owning each given IPv4
// address, one line per argument, or "??" when the address is not in
// the database.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scigolib/ip2cc"
)

var (
	flagUpper  bool
	flagDBPath string
)

var rootCmd = &cobra.Command{
	Use:           "ip2cc [-u] [--db <file>] <addr>...",
	Short:         "look up the country owning IPv4 addresses",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := ip2cc.Open(flagDBPath)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		var broken error
		for _, arg := range args {
			ip, err := ip2cc.ParseIPv4(arg)
			if err != nil {
				return err
			}
			id, err := db.LookupID(ip)
			switch {
			case err == nil:
				fmt.Println(ip2cc.Code(id, flagUpper))
			case errors.Is(err, ip2cc.ErrNotFound):
				fmt.Println("??")
			default:
				// Corrupt database or I/O failure: still emit one line so
				// output stays aligned with the arguments, but fail the run.
				fmt.Println("??")
				broken = err
			}
		}
		return broken
	},
}

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&flagUpper, "uppercase", "u", false, "print country codes in uppercase")
	f.StringVarP(&flagDBPath, "db", "f", ip2cc.DefaultDBPath(), "database file to query")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ip2cc:", err)
		os.Exit(1)
	}
}
