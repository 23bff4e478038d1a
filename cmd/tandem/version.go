package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/tandem/internal/version"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Build()
		if versionJSON {
			return writeJSON(info)
		}
		fmt.Println(info.String())
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print build details as JSON")
}
