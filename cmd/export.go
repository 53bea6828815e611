/*
Copyright 2026 The streamhist Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/streamhist/streamhist/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Writes the listening history to a SQLite database",
	Long: `Loads the endsong files and writes every listen to the database given
by --database, so the history can be queried with plain SQL. Exporting
again into the same database only adds listens it hasn't seen.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		err := runExport(viper.GetString("database"))
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(dbPath string) error {
	lib, err := openLibrary()
	if err != nil {
		return err
	}

	db, err := export.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.WriteEvents(lib.Store); err != nil {
		return err
	}

	count, err := db.ListenCount()
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d listens to %s (%d total in database)\n", lib.Store.Len(), dbPath, count)
	return nil
}
