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
	"time"

	"github.com/avast/retry-go"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type SendEmailConfig struct {
	From           string
	To             string
	Types          []string
	DryRun         bool
	SendgridApiKey string
	Start          time.Time
	End            time.Time
}

var emailCmd = &cobra.Command{
	Use:   "email <address> <report...> [date] [date]",
	Short: "Sends a listening report by email",
	Long: `Emails one or more reports to the given address.
  <report> is one or more of: top-artists, top-albums, top-tracks.
  Optional date arguments can be provided at the end (e.g. '2023-01' or '2023-01 2023-06').
  If no dates are provided, defaults to the previous month.`,
	Args: cobra.MinimumNArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("from") == "" {
			return fmt.Errorf("required flag(s) \"from\" not set")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		to := args[0]
		reports, dateArgs := splitDateArgs(args[1:])
		if len(reports) == 0 {
			fmt.Println("Error: no reports specified")
			os.Exit(1)
		}

		var start, end time.Time
		var err error
		if len(dateArgs) > 0 {
			start, end, err = parseDateRangeFromArgs(dateArgs)
			if err != nil {
				fmt.Printf("Error parsing dates: %v\n", err)
				os.Exit(1)
			}
		} else {
			// Default to last month
			now := time.Now()
			start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
			end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		}

		config := SendEmailConfig{
			From:           viper.GetString("from"),
			To:             to,
			Types:          reports,
			DryRun:         viper.GetBool("dryRun"),
			SendgridApiKey: viper.GetString("sendgrid_api_key"),
			Start:          start,
			End:            end,
		}
		err = sendEmail(config)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(emailCmd)

	var dryRun bool
	emailCmd.Flags().BoolVarP(&dryRun, "dry_run", "n", false, "When true, just print instead of emailing")
	viper.BindPFlag("dryRun", emailCmd.Flags().Lookup("dry_run"))
}

func sendEmail(config SendEmailConfig) error {
	actions := make([]Analyser, 0)
	for _, actionName := range config.Types {
		action, err := getActionFromName(actionName)
		if err != nil {
			return err
		}
		actions = append(actions, action)
	}

	lib, err := openLibrary()
	if err != nil {
		return err
	}

	subject, out, err := generateEmailContent(config, lib, actions)
	if err != nil {
		return err
	}

	if config.DryRun {
		fmt.Printf("Would have sent email: \nsubject: %s\n%s\n", subject, out)
		return nil
	}

	if config.SendgridApiKey == "" {
		return fmt.Errorf("sendgrid_api_key must be set in order to send emails")
	}

	from := mail.NewEmail("streamhist", config.From)
	to := mail.NewEmail(config.To, config.To)
	message := mail.NewSingleEmail(from, subject, to, "", out)
	client := sendgrid.NewSendClient(config.SendgridApiKey)

	err = retry.Do(
		func() error {
			response, err := client.Send(message)
			if err != nil {
				return err
			}
			if response.StatusCode >= 400 {
				return fmt.Errorf("sendgrid returned %d: %s", response.StatusCode, response.Body)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
	)
	if err != nil {
		return fmt.Errorf("sendEmail: %w", err)
	}

	return nil
}

func generateEmailContent(config SendEmailConfig, lib *Library, actions []Analyser) (subject string, body string, err error) {
	out := `
<html>
  <head>
<style>
td {
  padding: 0.1em 0.2em;
}
table, th, td {
  border: 1px solid black;
  border-collapse: collapse;
}
</style>
  </head>
  <body>
`
	for _, action := range actions {
		out += `
		<div>
`
		out += fmt.Sprintf("<h2>%s %s to %s:</h2>\n", action.GetName(),
			config.Start.Format(dateFormat), config.End.Format(dateFormat))
		analysis, err := action.GetResults(lib, config.Start, config.End)
		if err != nil {
			return "", "", fmt.Errorf("getting results for %s: %w", action.GetName(), err)
		}

		if len(analysis.results) <= 1 {
			// No listens found
			out += "<div>No listens found.</div>\n"
		} else {
			out += `
			<table>
				<thead>
					<tr>
`
			for _, header := range analysis.results[0] {
				out += fmt.Sprintf("<th>%s</th>", header)
			}
			out += `				</tr>
			</thead>`

			for _, row := range analysis.results[1:] {
				out += "<tr>\n"
				for _, column := range row {
					out += fmt.Sprintf("<td>%s</td>\n", column)
				}
				out += "</tr>\n"

			}
			out += `
				</tbody>
			</table>
`
		}
		out += fmt.Sprintf(`<div>%s</div>
		</div>`, analysis.summary)
	}

	subject = fmt.Sprintf("Listening report %s to %s",
		config.Start.Format(dateFormat), config.End.Format(dateFormat))

	return subject, out, nil
}

func getActionFromName(actionName string) (Analyser, error) {
	actionMap := map[string]Analyser{
		"top-artists": TopArtistsAnalyzer{Config: AnalyserConfig{NumToReturn: 20}},
		"top-albums":  TopAlbumsAnalyzer{Config: AnalyserConfig{NumToReturn: 20}},
		"top-tracks":  TopTracksAnalyzer{Config: AnalyserConfig{NumToReturn: 20}},
	}

	action, ok := actionMap[actionName]
	if !ok {
		return nil, fmt.Errorf("invalid report name: %s", actionName)
	}

	return action, nil
}
