package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/komekarch/site/backend/internal/analysis/topic"
	"github.com/komekarch/site/backend/internal/model/course"
)

func loadEngine(path string) (*topic.Engine, error) {
	if path == "" {
		return topic.Default(), nil
	}
	return topic.LoadFile(path)
}

func newAskCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question from the keyword table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := loadEngine(rulesPath)
			if err != nil {
				return fail("load rules: %w", err)
			}
			answer := engine.Lookup(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), renderBubble(roleAssistant, answer.Text))
			fmt.Fprintln(cmd.OutOrStdout(), hintStyle.Render("topic: "+answer.Topic))
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rule table overriding the built-in one")
	return cmd
}

func newCoursesCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Print the course catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			modules := course.Seed()
			if catalogPath != "" {
				var err error
				if modules, err = course.LoadFile(catalogPath); err != nil {
					return fail("load catalog: %w", err)
				}
			}
			for _, m := range modules {
				fmt.Fprintln(cmd.OutOrStdout(), renderModule(m))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "YAML catalog overriding the built-in one")
	return cmd
}

func newChatCmd() *cobra.Command {
	var (
		rulesPath string
		delay     time.Duration
		serial    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive assistant widget",
		Long: "Opens the assistant widget in the terminal. Type a question and press Enter.\n" +
			"Commands: /open /close /clear /1../4 (quick questions) /quit",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := loadEngine(rulesPath)
			if err != nil {
				return fail("load rules: %w", err)
			}
			return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), chatOptions{
				engine: engine,
				delay:  delay,
				serial: serial,
			})
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML rule table overriding the built-in one")
	cmd.Flags().DurationVar(&delay, "delay", 600*time.Millisecond, "simulated reply latency")
	cmd.Flags().BoolVar(&serial, "serial", false, "answer overlapping questions one at a time")
	return cmd
}
