package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mailpilot/mailpilot/internal/prompts"
)

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Manage the assistant's prompt templates",
	}

	cmd.AddCommand(newPromptsListCmd())
	cmd.AddCommand(newPromptsShowCmd())
	cmd.AddCommand(newPromptsCreateCmd())
	cmd.AddCommand(newPromptsUpdateCmd())
	cmd.AddCommand(newPromptsDeleteCmd())
	return cmd
}

// loadedPromptsStore builds the store and loads the prompt library.
func (a *app) loadedPromptsStore(cmd *cobra.Command) (*prompts.Store, error) {
	if err := a.requireAuth(); err != nil {
		return nil, err
	}
	store := prompts.NewStore(a.client, a.logger)
	if err := store.Load(cmd.Context()); err != nil {
		return nil, a.fail(cmd.Context(), err)
	}
	return store, nil
}

func newPromptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List prompt templates by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedPromptsStore(cmd)
			if err != nil {
				return err
			}
			list := store.List()
			if len(list) == 0 {
				fmt.Println("No prompts.")
				return nil
			}
			for _, p := range list {
				marks := ""
				if p.IsActive {
					marks += " active"
				}
				if p.IsSystem {
					marks += " system"
				}
				fmt.Printf("%-14s %-14s v%-3d %-30s%s\n", p.ID, p.Category, p.Version, p.Name, marks)
			}
			return nil
		},
	}
}

func newPromptsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <prompt-id>",
		Short: "Show a prompt template in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedPromptsStore(cmd)
			if err != nil {
				return err
			}
			p, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("no prompt with id %s", args[0])
			}
			fmt.Printf("Name:     %s (v%d)\n", p.Name, p.Version)
			fmt.Printf("Category: %s\n", p.Category)
			if p.Description != "" {
				fmt.Printf("About:    %s\n", p.Description)
			}
			fmt.Printf("Active:   %v\n", p.IsActive)
			if p.IsSystem {
				fmt.Println("System prompt (read-only)")
			}
			fmt.Printf("\n%s\n", p.Template)
			return nil
		},
	}
}

func newPromptsCreateCmd() *cobra.Command {
	var name, description, template, category string
	var activate bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a prompt template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedPromptsStore(cmd)
			if err != nil {
				return err
			}
			p, err := store.Create(cmd.Context(), prompts.Prompt{
				Name:        name,
				Description: description,
				Template:    template,
				Category:    category,
				IsActive:    activate,
			})
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Created prompt %s (v%d)\n", p.ID, p.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Prompt name")
	cmd.Flags().StringVar(&description, "description", "", "What the prompt is for")
	cmd.Flags().StringVar(&template, "template", "", "Prompt template text")
	cmd.Flags().StringVar(&category, "category", "", "Category, e.g. summarize or draft")
	cmd.Flags().BoolVar(&activate, "activate", false, "Make this the active prompt of its category")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newPromptsUpdateCmd() *cobra.Command {
	var name, description, template string
	var activate bool

	cmd := &cobra.Command{
		Use:   "update <prompt-id>",
		Short: "Update a prompt template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedPromptsStore(cmd)
			if err != nil {
				return err
			}
			p, ok := store.Get(args[0])
			if !ok {
				return fmt.Errorf("no prompt with id %s", args[0])
			}

			if cmd.Flags().Changed("name") {
				p.Name = name
			}
			if cmd.Flags().Changed("description") {
				p.Description = description
			}
			if cmd.Flags().Changed("template") {
				p.Template = template
			}
			if cmd.Flags().Changed("activate") {
				p.IsActive = activate
			}

			updated, err := store.Update(cmd.Context(), p)
			if err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Updated prompt %s (now v%d)\n", updated.ID, updated.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Prompt name")
	cmd.Flags().StringVar(&description, "description", "", "What the prompt is for")
	cmd.Flags().StringVar(&template, "template", "", "Prompt template text")
	cmd.Flags().BoolVar(&activate, "activate", false, "Make this the active prompt of its category")
	return cmd
}

func newPromptsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <prompt-id>",
		Short: "Delete a prompt template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			store, err := a.loadedPromptsStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return a.fail(cmd.Context(), err)
			}
			fmt.Printf("Deleted prompt %s\n", args[0])
			return nil
		},
	}
}
