// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskpipe/internal/checksum"
)

var (
	// checksumAlgo picks the digest algorithm for the checksum command.
	checksumAlgo string

	checksumCmd = &cobra.Command{
		Use:   "checksum [file|glob...]",
		Short: "Print content digests for files",
		Long: `Print a content digest for each file, one per line in the familiar
"<digest>  <path>" layout. Supported algorithms are md5 (the default),
sha256 and blake3.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecksum(args)
		},
	}
)

func init() {
	checksumCmd.Flags().StringVarP(&checksumAlgo, "algo", "a", string(checksum.MD5), "digest algorithm (md5, sha256 or blake3)")
}

// runChecksum expands the path arguments and prints one digest line per file.
func runChecksum(args []string) error {
	algo, err := checksum.ParseAlgorithm(checksumAlgo)
	if err != nil {
		return err
	}

	paths, err := expandGlobArgs(args)
	if err != nil {
		return err
	}

	for _, path := range paths {
		digest, err := checksum.File(path, algo)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n", digest, path)
	}
	return nil
}
