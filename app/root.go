// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "applymate",
	Short: "ApplyMate is a web-based school-application assistance platform",
	Long: `ApplyMate is a web-based school-application assistance platform
that lets applicants keep a reusable application profile, map form fields
on third-party application sites to profile fields, and autofill them
through a browser extension or companion page.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
