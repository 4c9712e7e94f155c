// Command mk-ip4db builds the IPv4-to-country database from a CSV of
// (start, end, country) ranges.
package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/scigolib/ip2cc"
)

var (
	flagFormat1 bool
	flagFormat2 bool
	flagFormat3 bool
	flagFormat4 bool
	flagCSMap   string
	flagDebug   bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "mk-ip4db [-1|-2|-3|-4] <csv-in> [<db-out>]",
	Short: "build the IPv4-to-country database",
	Long: `mk-ip4db builds the clustered binary search tree database used by
ip2cc from a CSV of IP ranges. The source columns are, per format:

  (default)  "<ip-start>","<ip-end>","<iso-country>","...","..."
  -2         "<ip-start>","<ip-end>","<iso-country>","..."
  -3         "<...>","<...>","<ip-start>","<ip-end>","<iso-country>","...","..."
  -4         "<...>","<...>","<ip-start>","<ip-end>","<iso-country>","..."

Without <db-out> the database is written to the platform default path.`,
	Args:          cobra.RangeArgs(1, 2),
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.New()
		switch {
		case flagDebug:
			log.SetLevel(logrus.DebugLevel)
		case flagQuiet:
			log.SetLevel(logrus.WarnLevel)
		default:
			log.SetLevel(logrus.InfoLevel)
		}

		sourceFormat := 0
		for i, set := range []bool{flagFormat1, flagFormat2, flagFormat3, flagFormat4} {
			if !set {
				continue
			}
			if sourceFormat != 0 {
				return errors.New("at most one source format flag may be given")
			}
			sourceFormat = i + 1
		}
		if sourceFormat == 0 {
			sourceFormat = 1
		}

		dbPath := ip2cc.DefaultDBPath()
		if len(args) == 2 {
			dbPath = args[1]
		}
		_, err := ip2cc.BuildFile(args[0], dbPath, ip2cc.BuildOptions{
			SourceFormat: sourceFormat,
			CSMap:        flagCSMap,
			Log:          log,
		})
		return err
	},
}

func addFormatFlags(f *pflag.FlagSet) {
	f.BoolVarP(&flagFormat1, "format-1", "1", false, "source has 5 columns starting with the IP range (default)")
	f.BoolVarP(&flagFormat2, "format-2", "2", false, "source has 4 columns starting with the IP range")
	f.BoolVarP(&flagFormat3, "format-3", "3", false, "source has 7 columns with the IP range third")
	f.BoolVarP(&flagFormat4, "format-4", "4", false, "source has 6 columns with the IP range third")
}

func init() {
	f := rootCmd.Flags()
	addFormatFlags(f)
	f.StringVar(&flagCSMap, "cs-map", "cz", "country stored for the deprecated code CS (use \"cs\" to reject it)")
	f.BoolVarP(&flagDebug, "debug", "d", false, "enable debug output")
	f.BoolVarP(&flagQuiet, "quiet", "q", false, "only report warnings and errors")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
