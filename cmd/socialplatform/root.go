// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SocialPlatform Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the socialplatform CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "socialplatform",
		Short: "socialplatform - user account backend",
		Long: `socialplatform is a user account backend: registration, login,
account queries, and deletion over an HTTP JSON API, with
server-side cookie sessions and a built-in web form.`,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
