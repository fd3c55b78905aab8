package cmd

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"slidecraft/internal/app"
	"slidecraft/internal/deck"
	"slidecraft/pkg/config"
)

var (
	genTopic    string
	genSlides   int
	genTone     string
	genImages   int
	genTemplate string
)

var successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
var warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a deck for a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if genTemplate != "" {
			cfg.TemplatePath = genTemplate
		}

		service, err := app.BuildService(cfg, slog.Default())
		if err != nil {
			return err
		}

		result, err := service.Pipeline().Run(cmd.Context(), deck.GenerationRequest{
			Topic:          genTopic,
			SlideCount:     genSlides,
			Tone:           genTone,
			ImagesPerSlide: genImages,
			TemplateRef:    genTemplate,
		})
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Render("Deck ready: " + result.ArtifactPath))
		for _, w := range result.Warnings {
			fmt.Println(warnStyle.Render("  warning: " + w.String()))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genTopic, "topic", "t", "", "deck topic (required)")
	generateCmd.Flags().IntVarP(&genSlides, "slides", "n", 5, "number of slides (1-20)")
	generateCmd.Flags().StringVar(&genTone, "tone", "", "script tone, e.g. formal or casual")
	generateCmd.Flags().IntVarP(&genImages, "images", "i", 1, "images per slide (0-4)")
	generateCmd.Flags().StringVar(&genTemplate, "template", "", "path to a custom deck template")
	_ = generateCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(generateCmd)
}
