package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively configure API credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		var groqKey, unsplashKey string

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Groq API key").
					Description("Used to generate slide scripts.").
					EchoMode(huh.EchoModePassword).
					Value(&groqKey).
					Validate(required("Groq API key")),
				huh.NewInput().
					Title("Unsplash access key").
					Description("Used to search slide images.").
					EchoMode(huh.EchoModePassword).
					Value(&unsplashKey).
					Validate(required("Unsplash access key")),
			),
		)
		if err := form.Run(); err != nil {
			return err
		}

		var writeErr error
		err := spinner.New().
			Title("Writing .env").
			Action(func() {
				content := fmt.Sprintf("GROQ_API_KEY=%s\nUNSPLASH_ACCESS_KEY=%s\n", groqKey, unsplashKey)
				writeErr = os.WriteFile(".env", []byte(content), 0o600)
			}).
			Run()
		if err != nil {
			return err
		}
		if writeErr != nil {
			return fmt.Errorf("write .env: %w", writeErr)
		}

		fmt.Println(successStyle.Render("Credentials saved to .env"))
		return nil
	},
}

func required(name string) func(string) error {
	return func(value string) error {
		if value == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
		return nil
	}
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
